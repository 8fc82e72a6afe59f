package runstore

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/output"
)

func (s *Store) readReconciled() ([]recon.ReconciledRecord, error) {
	rows, err := s.readCSV(output.ReconciledFile, output.ReconciledHeader)
	if err != nil {
		return nil, err
	}

	records := make([]recon.ReconciledRecord, 0, len(rows))
	for i, row := range rows {
		record, err := parseReconciledRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s row %d: %w", output.ReconciledFile, i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) readGhosts() ([]recon.GhostSettlement, error) {
	rows, err := s.readCSV(output.GhostsFile, output.GhostHeader)
	if err != nil {
		return nil, err
	}

	ghosts := make([]recon.GhostSettlement, 0, len(rows))
	for i, row := range rows {
		ghost, err := parseGhostRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s row %d: %w", output.GhostsFile, i+2, err)
		}
		ghosts = append(ghosts, ghost)
	}
	return ghosts, nil
}

func (s *Store) readCSV(name string, header []string) ([][]string, error) {
	data, err := s.storage.ReadFile(name)
	if err != nil {
		return nil, err
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file %s has no header", name)
	}
	if !slices.Equal(rows[0], header) {
		return nil, fmt.Errorf("file %s has unexpected header %v", name, rows[0])
	}
	return rows[1:], nil
}

func parseReconciledRow(row []string) (recon.ReconciledRecord, error) {
	timestamp, err := time.Parse(payment.TimestampLayout, row[1])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	amount, err := decimal.NewFromString(row[2])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	expected, err := decimal.NewFromString(row[9])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	settlementDate, err := optionalTime(row[11])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	actual, err := optionalDecimal(row[12])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	discrepancy, err := optionalDecimal(row[13])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	discrepancyPct, err := optionalDecimal(row[14])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	timingAnomaly, err := strconv.ParseBool(row[16])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	daysToSettle, err := optionalInt(row[17])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}
	expectedDate, err := time.Parse(payment.TimestampLayout, row[18])
	if err != nil {
		return recon.ReconciledRecord{}, err
	}

	return recon.ReconciledRecord{
		Transaction: payment.Transaction{
			ID:         row[0],
			Timestamp:  timestamp,
			Amount:     amount,
			Currency:   row[3],
			Status:     payment.TransactionStatus(row[4]),
			Provider:   row[5],
			Method:     payment.Method(row[6]),
			Country:    row[7],
			CustomerID: row[8],
		},
		ExpectedSettledAmount:  expected,
		SettlementID:           row[10],
		SettlementDate:         settlementDate,
		ActualSettledAmount:    actual,
		DiscrepancyAmount:      discrepancy,
		DiscrepancyPercent:     discrepancyPct,
		SettlementStatus:       recon.SettlementStatus(row[15]),
		TimingAnomaly:          timingAnomaly,
		DaysToSettle:           daysToSettle,
		ExpectedSettlementDate: expectedDate,
	}, nil
}

func parseGhostRow(row []string) (recon.GhostSettlement, error) {
	timestamp, err := time.Parse(payment.TimestampLayout, row[2])
	if err != nil {
		return recon.GhostSettlement{}, err
	}
	amount, err := decimal.NewFromString(row[3])
	if err != nil {
		return recon.GhostSettlement{}, err
	}
	return recon.GhostSettlement{
		Settlement: payment.Settlement{
			ID:            row[0],
			TransactionID: row[1],
			Timestamp:     timestamp,
			Amount:        amount,
			Currency:      row[4],
			Provider:      row[5],
		},
		AnomalyType: row[6],
	}, nil
}

func optionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(payment.TimestampLayout, value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func optionalDecimal(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalInt(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
