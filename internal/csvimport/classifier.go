package csvimport

import "strings"

type DropReason string

const (
	// DropSparse marks rows with fewer than two populated cells.
	DropSparse DropReason = "sparse"
	// DropSummary marks total/summary footer rows.
	DropSummary DropReason = "summary"
)

const minPopulatedCells = 2

var summaryKeywords = []string{"total", "subtotal", "summary", "amount due"}

// Classify keeps the rows that look like real line items and counts the
// discarded ones per reason. A device model whose name contains "total" is
// dropped too; that false positive is accepted.
func Classify(rows []Row) ([]Row, map[DropReason]int) {
	kept := make([]Row, 0, len(rows))
	drops := map[DropReason]int{}
	for _, row := range rows {
		if reason, drop := classifyRow(row); drop {
			drops[reason]++
			continue
		}
		kept = append(kept, row)
	}
	return kept, drops
}

func classifyRow(row Row) (DropReason, bool) {
	populated := 0
	for _, cell := range row.Cells {
		if populatedCell(cell) {
			populated++
		}
	}
	if populated < minPopulatedCells {
		return DropSparse, true
	}

	for _, cell := range row.Cells {
		text, ok := cell.Value.(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(text)
		for _, keyword := range summaryKeywords {
			if strings.Contains(lower, keyword) {
				return DropSummary, true
			}
		}
	}
	return "", false
}

func populatedCell(cell Cell) bool {
	switch v := cell.Value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}
