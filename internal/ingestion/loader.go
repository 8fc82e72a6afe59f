// Package ingestion loads the raw transaction and settlement CSV files.
// Structurally broken rows fail the load with their row numbers; unknown
// enum values are tolerated and logged, the downstream engines resolve
// them with documented defaults.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/domain/payment"
)

var transactionHeader = []string{
	"transaction_id", "timestamp", "amount", "currency", "status",
	"provider", "payment_method", "country", "customer_id",
}

var settlementHeader = []string{
	"settlement_id", "transaction_id", "settlement_date", "settled_amount",
	"currency", "provider",
}

var knownCurrencies = map[string]struct{}{
	"BRL": {}, "MXN": {}, "COP": {}, "CLP": {}, "USD": {},
}

// Loader reads and validates the raw input files.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadTransactions reads the transactions CSV. It returns an error naming
// every structurally invalid row; a file with any such row is rejected
// whole.
func (l *Loader) LoadTransactions(path string) ([]payment.Transaction, error) {
	rows, err := readRows(path, transactionHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions file: %w", err)
	}

	transactions := make([]payment.Transaction, 0, len(rows))
	var rowErrs []string
	warnings := 0

	for _, row := range rows {
		txn, err := l.parseTransaction(row)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: %v", row.number, err))
			continue
		}
		if !txn.Status.IsValid() {
			l.logger.Warn("unknown transaction status", "row", row.number, "status", string(txn.Status))
			warnings++
		}
		if !txn.Method.IsValid() {
			l.logger.Warn("unknown payment method", "row", row.number, "payment_method", string(txn.Method))
			warnings++
		}
		if _, known := knownCurrencies[txn.Currency]; !known {
			l.logger.Warn("unknown currency", "row", row.number, "currency", txn.Currency)
			warnings++
		}
		transactions = append(transactions, txn)
	}

	if len(rowErrs) > 0 {
		return nil, fmt.Errorf("invalid transactions file: %s", strings.Join(rowErrs, "; "))
	}

	l.logger.Info("transactions loaded", "path", path, "rows", len(transactions), "warnings", warnings)
	return transactions, nil
}

// LoadSettlements reads the settlements CSV with the same row-level
// validation rules as LoadTransactions.
func (l *Loader) LoadSettlements(path string) ([]payment.Settlement, error) {
	rows, err := readRows(path, settlementHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to read settlements file: %w", err)
	}

	settlements := make([]payment.Settlement, 0, len(rows))
	var rowErrs []string
	warnings := 0

	for _, row := range rows {
		settlement, err := l.parseSettlement(row)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: %v", row.number, err))
			continue
		}
		if _, known := knownCurrencies[settlement.Currency]; !known {
			l.logger.Warn("unknown currency", "row", row.number, "currency", settlement.Currency)
			warnings++
		}
		settlements = append(settlements, settlement)
	}

	if len(rowErrs) > 0 {
		return nil, fmt.Errorf("invalid settlements file: %s", strings.Join(rowErrs, "; "))
	}

	l.logger.Info("settlements loaded", "path", path, "rows", len(settlements), "warnings", warnings)
	return settlements, nil
}

func (l *Loader) parseTransaction(row csvRow) (payment.Transaction, error) {
	timestamp, err := parseTimestamp(row.fields[1])
	if err != nil {
		return payment.Transaction{}, err
	}
	amount, err := parseAmount(row.fields[2])
	if err != nil {
		return payment.Transaction{}, err
	}

	txn := payment.Transaction{
		ID:         row.fields[0],
		Timestamp:  timestamp,
		Amount:     amount,
		Currency:   row.fields[3],
		Status:     payment.TransactionStatus(row.fields[4]),
		Provider:   row.fields[5],
		Method:     payment.Method(row.fields[6]),
		Country:    row.fields[7],
		CustomerID: row.fields[8],
	}
	if err := txn.Validate(); err != nil {
		return payment.Transaction{}, err
	}
	return txn, nil
}

func (l *Loader) parseSettlement(row csvRow) (payment.Settlement, error) {
	timestamp, err := parseTimestamp(row.fields[2])
	if err != nil {
		return payment.Settlement{}, err
	}
	amount, err := parseAmount(row.fields[3])
	if err != nil {
		return payment.Settlement{}, err
	}

	settlement := payment.Settlement{
		ID:            row.fields[0],
		TransactionID: row.fields[1],
		Timestamp:     timestamp,
		Amount:        amount,
		Currency:      row.fields[4],
		Provider:      row.fields[5],
	}
	if err := settlement.Validate(); err != nil {
		return payment.Settlement{}, err
	}
	return settlement, nil
}

// csvRow is one data row with its 1-based file line number.
type csvRow struct {
	number int
	fields []string
}

// readRows opens a CSV file, verifies its header, and returns the data
// rows. Rows with the wrong field count fail the whole read because the
// remaining columns cannot be trusted to line up.
func readRows(path string, header []string) ([]csvRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	first, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	if err != nil {
		return nil, err
	}
	if !equalFields(first, header) {
		return nil, fmt.Errorf("unexpected header %v, want %v", first, header)
	}

	var rows []csvRow
	number := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		number++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", number, err)
		}
		rows = append(rows, csvRow{number: number, fields: fields})
	}
	return rows, nil
}

func equalFields(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(payment.TimestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
	}
	return ts, nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}
