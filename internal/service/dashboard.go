package service

import (
	"fmt"
	"sort"
	"strings"

	"atlasinvoice/internal/domain"
	"atlasinvoice/internal/store"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	FilterYear     = "year"
	topDeviceLimit = 5
	unknownModel   = "Unknown"
)

type SeriesPoint struct {
	Label   string          `json:"label"`
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	Filter       string             `json:"filter"`
	TotalDevices decimal.Decimal    `json:"total_devices"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	AveragePrice decimal.Decimal    `json:"average_price"`
	InvoiceCount int                `json:"invoice_count"`
	Display      DashboardDisplay   `json:"display"`
	Series       []SeriesPoint      `json:"series"`
	TopDevices   []domain.TopDevice `json:"top_devices"`
}

type DashboardDisplay struct {
	TotalRevenue string `json:"total_revenue"`
	AveragePrice string `json:"average_price"`
}

// Dashboard aggregates either the whole year or a single month. The revenue
// series always covers all twelve months.
func (s *Service) Dashboard(filter string) (Dashboard, error) {
	snapshot := s.store.Snapshot()

	targets := domain.Months
	label := FilterYear
	if trimmed := strings.TrimSpace(filter); trimmed != "" && !strings.EqualFold(trimmed, FilterYear) {
		month, ok := domain.ParseMonth(trimmed)
		if !ok {
			return Dashboard{}, fmt.Errorf("%w: %q", store.ErrUnknownMonth, filter)
		}
		targets = []string{month}
		label = month
	}

	out := Dashboard{
		Filter:       label,
		TotalDevices: decimal.Zero,
		TotalRevenue: decimal.Zero,
		AveragePrice: decimal.Zero,
	}
	var items []domain.LineItem
	for _, month := range targets {
		bucket := snapshot[month]
		out.TotalDevices = out.TotalDevices.Add(bucket.TotalDevices)
		out.TotalRevenue = out.TotalRevenue.Add(bucket.TotalPaid)
		out.InvoiceCount += len(bucket.Invoices)
		for _, inv := range bucket.Invoices {
			items = append(items, inv.Items...)
		}
	}
	if !out.TotalDevices.IsZero() {
		out.AveragePrice = out.TotalRevenue.DivRound(out.TotalDevices, 4)
	}

	out.Series = make([]SeriesPoint, 0, len(domain.Months))
	for _, month := range domain.Months {
		out.Series = append(out.Series, SeriesPoint{
			Label:   month[:3],
			Month:   month,
			Revenue: snapshot[month].TotalPaid,
		})
	}

	out.TopDevices = s.topDevices(items)
	out.Display = DashboardDisplay{
		TotalRevenue: s.formatMoney(out.TotalRevenue),
		AveragePrice: s.formatMoney(out.AveragePrice),
	}
	return out, nil
}

// topDevices ranks models by revenue. Ties keep the model name order so the
// leaderboard is stable between calls.
func (s *Service) topDevices(items []domain.LineItem) []domain.TopDevice {
	byModel := map[string]*domain.TopDevice{}
	for _, item := range items {
		name := strings.TrimSpace(item.Model)
		if name == "" {
			name = unknownModel
		}
		entry, ok := byModel[name]
		if !ok {
			entry = &domain.TopDevice{Model: name, Units: decimal.Zero, Revenue: decimal.Zero}
			byModel[name] = entry
		}
		entry.Units = entry.Units.Add(item.Quantity)
		entry.Revenue = entry.Revenue.Add(item.Price)
	}

	ranked := make([]domain.TopDevice, 0, len(byModel))
	for _, entry := range byModel {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].Revenue.Cmp(ranked[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Model < ranked[j].Model
	})
	if len(ranked) > topDeviceLimit {
		ranked = ranked[:topDeviceLimit]
	}
	for i := range ranked {
		ranked[i].Display = s.formatMoney(ranked[i].Revenue)
	}
	return ranked
}

// Search matches the query case-insensitively against item IMEIs and models
// across every month, in calendar order.
func (s *Service) Search(query string) ([]domain.SearchHit, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, ErrEmptyQuery
	}

	snapshot := s.store.Snapshot()
	hits := make([]domain.SearchHit, 0)
	for _, month := range domain.Months {
		for _, inv := range snapshot[month].Invoices {
			for _, item := range inv.Items {
				if !strings.Contains(strings.ToLower(item.IMEI), needle) &&
					!strings.Contains(strings.ToLower(item.Model), needle) {
					continue
				}
				hits = append(hits, domain.SearchHit{
					Month:    month,
					Model:    item.Model,
					IMEI:     item.IMEI,
					Price:    item.Price,
					Display:  s.formatMoney(item.Price),
					FileName: inv.FileName,
				})
			}
		}
	}
	return hits, nil
}

// FormatMoney renders an amount in the configured currency, for example
// "$1,234.50" for USD.
func (s *Service) FormatMoney(amount decimal.Decimal) string {
	return s.formatMoney(amount)
}

func (s *Service) formatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(s.currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + s.currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
