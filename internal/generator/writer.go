package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

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

// SaveCSV writes the dataset to the two raw input files, creating parent
// directories as needed. Existing files are replaced.
func (d *Dataset) SaveCSV(transactionsPath, settlementsPath string) error {
	if err := writeCSV(transactionsPath, transactionHeader, transactionRows(d.Transactions)); err != nil {
		return fmt.Errorf("failed to write transactions csv: %w", err)
	}
	if err := writeCSV(settlementsPath, settlementHeader, settlementRows(d.Settlements)); err != nil {
		return fmt.Errorf("failed to write settlements csv: %w", err)
	}
	return nil
}

func transactionRows(transactions []payment.Transaction) [][]string {
	rows := make([][]string, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		rows = append(rows, []string{
			t.ID,
			t.Timestamp.Format(payment.TimestampLayout),
			t.Amount.StringFixed(2),
			t.Currency,
			string(t.Status),
			t.Provider,
			string(t.Method),
			t.Country,
			t.CustomerID,
		})
	}
	return rows
}

func settlementRows(settlements []payment.Settlement) [][]string {
	rows := make([][]string, 0, len(settlements))
	for i := range settlements {
		s := &settlements[i]
		rows = append(rows, []string{
			s.ID,
			s.TransactionID,
			s.Timestamp.Format(payment.TimestampLayout),
			s.Amount.StringFixed(2),
			s.Currency,
			s.Provider,
		})
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return file.Close()
}
