package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"famtrack/internal/storage"
)

// ExportService writes a user's transaction history as CSV.
type ExportService struct {
	repo *storage.Repository
}

func NewExportService(repo *storage.Repository) *ExportService {
	return &ExportService{repo: repo}
}

var csvHeader = []string{"Date", "Category", "Type", "Amount", "Members", "Personal"}

// WriteCSV streams the user's transactions inside [from, to) to w,
// newest first.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, userID string, from, to time.Time) error {
	txs, err := s.repo.ListTransactionsBetween(ctx, userID, from, to)
	if err != nil {
		return fmt.Errorf("list transactions for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, t := range txs {
		names := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			names = append(names, m.Name)
		}

		record := []string{
			t.OccurredAt.Format("2006-01-02"),
			t.CategoryLabel(),
			string(t.Kind),
			strconv.FormatFloat(t.Amount.Amount(), 'f', 2, 64),
			strings.Join(names, "; "),
			strconv.FormatBool(t.IsPersonal()),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
