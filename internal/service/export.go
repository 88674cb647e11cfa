package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"atlasinvoice/internal/domain"
	"atlasinvoice/internal/excel"
	"atlasinvoice/internal/store"
)

var ErrUnknownFormat = errors.New("unknown export format")

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return ExportCSV, nil
	case "xlsx", "excel":
		return ExportXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

func (f ExportFormat) ContentType() string {
	if f == ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f ExportFormat) FileName(month string) string {
	return strings.ToLower(month) + "-items." + string(f)
}

// ExportMonth writes the month in the requested format and returns the
// canonical month name.
func (s *Service) ExportMonth(w io.Writer, rawMonth string, format ExportFormat) (string, error) {
	month, ok := domain.ParseMonth(rawMonth)
	if !ok {
		return "", fmt.Errorf("%w: %q", store.ErrUnknownMonth, rawMonth)
	}
	bucket, err := s.store.Month(month)
	if err != nil {
		return "", err
	}

	switch format {
	case ExportCSV:
		err = excel.WriteItemsCSV(w, bucket)
	case ExportXLSX:
		err = excel.WriteMonthWorkbook(w, month, bucket)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return "", fmt.Errorf("export %s as %s: %w", month, format, err)
	}
	return month, nil
}
