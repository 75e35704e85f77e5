package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/repository"
)

// Service produces XLSX bytes summarizing processed documents.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportDocumentsXLSX returns an XLSX workbook (as bytes) of documents with
// the given status; pass an empty status for all documents.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, status constants.DocStatus) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.List(ctx, status, 0)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Filename",
		"Status",
		"Category",
		"Issuer",
		"Document Date",
		"Amount",
		"Summary",
		"Sources",
		"Ingested At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.Filename)
		write(2, string(d.Status))
		write(3, deref(d.Category))
		write(4, deref(d.Issuer))
		write(5, deref(d.DocDate))
		write(6, deref(d.Amount))
		write(7, truncate(deref(d.Summary), 140))
		write(8, strings.Join(d.Sources, ", "))
		if !d.CreatedAt.IsZero() {
			write(9, d.CreatedAt.Format("2006-01-02"))
		} else {
			write(9, "")
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 36) // filename
	_ = f.SetColWidth(sheet, "B", "B", 14) // status
	_ = f.SetColWidth(sheet, "C", "D", 20) // category, issuer
	_ = f.SetColWidth(sheet, "E", "F", 14) // date, amount
	_ = f.SetColWidth(sheet, "G", "G", 48) // summary
	_ = f.SetColWidth(sheet, "H", "H", 18) // sources
	_ = f.SetColWidth(sheet, "I", "I", 14) // ingested

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
