package survey

import (
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// ClassifyProduct maps a product cell to one of the tracked categories.
// Matching is a case-insensitive substring check; S-10 diesel is deliberately
// not counted as common diesel.
func ClassifyProduct(product string) (Category, bool) {
	name := normalizeName(product)
	switch {
	case strings.Contains(name, "GASOLINA COMUM"):
		return CategoryGasolinaComum, true
	case strings.Contains(name, "ETANOL"):
		return CategoryEtanol, true
	case strings.Contains(name, "DIESEL") && !strings.Contains(name, "S10"):
		return CategoryDiesel, true
	case strings.Contains(name, "GNV"):
		return CategoryGNV, true
	}
	return "", false
}

// LatestPrices reduces report rows to the most recent reporting window of one
// municipality. The window is fixed by the maximum period-end date among the
// municipality's rows; the earliest period-start inside the window becomes
// the reported start. Per category the last matching row wins, and a row
// whose price cell does not parse resets the category to nil.
func LatestPrices(rows []Row, municipality string) (Extraction, error) {
	target := normalizeName(municipality)
	var local []Row
	for _, row := range rows {
		if normalizeName(row[ColMunicipality]) == target {
			local = append(local, row)
		}
	}
	if len(local) == 0 {
		return Extraction{}, fmt.Errorf("%w for municipality %s", ErrNoData, municipality)
	}

	window, end, ok := latestWindow(local)
	if !ok {
		return Extraction{}, fmt.Errorf("%w: rows for %s carry no readable period end", ErrNoData, municipality)
	}

	ext := Extraction{PeriodStart: windowStart(window, end), PeriodEnd: end}
	assigned := make(map[Category]bool, 4)
	for _, row := range window {
		cat, ok := ClassifyProduct(row[ColProduct])
		if !ok {
			continue
		}
		if assigned[cat] {
			ext.DuplicateProducts = append(ext.DuplicateProducts, row[ColProduct])
		}
		assigned[cat] = true
		if price, ok := ParsePrice(row[ColAvgPrice]); ok {
			ext.Prices.set(cat, &price)
		} else {
			ext.Prices.set(cat, nil)
		}
	}
	return ext, nil
}

// LatestSummary aggregates the most recent reporting window across every
// municipality in the report. Rows with unreadable prices are skipped rather
// than nulled, since the statistics only make sense over parsed values.
func LatestSummary(rows []Row) (SummaryExtraction, error) {
	window, end, ok := latestWindow(rows)
	if !ok {
		return SummaryExtraction{}, fmt.Errorf("%w: report carries no readable period end", ErrNoData)
	}

	prices := make(map[Category][]float64, 4)
	towns := make(map[Category]map[string]struct{}, 4)
	for _, row := range window {
		cat, ok := ClassifyProduct(row[ColProduct])
		if !ok {
			continue
		}
		price, ok := ParsePrice(row[ColAvgPrice])
		if !ok {
			continue
		}
		prices[cat] = append(prices[cat], price)
		if town := normalizeName(row[ColMunicipality]); town != "" {
			if towns[cat] == nil {
				towns[cat] = make(map[string]struct{})
			}
			towns[cat][town] = struct{}{}
		}
	}
	if len(prices) == 0 {
		return SummaryExtraction{}, fmt.Errorf("%w: latest window has no priced fuel rows", ErrNoData)
	}

	out := SummaryExtraction{PeriodStart: windowStart(window, end), PeriodEnd: end}
	for cat, series := range prices {
		fs, err := summarize(series, len(towns[cat]))
		if err != nil {
			return SummaryExtraction{}, err
		}
		out.Fuels.set(cat, fs)
	}
	return out, nil
}

func summarize(series []float64, municipalities int) (*FuelStats, error) {
	min, err := stats.Min(series)
	if err != nil {
		return nil, fmt.Errorf("summarize prices: %w", err)
	}
	max, err := stats.Max(series)
	if err != nil {
		return nil, fmt.Errorf("summarize prices: %w", err)
	}
	mean, err := stats.Mean(series)
	if err != nil {
		return nil, fmt.Errorf("summarize prices: %w", err)
	}
	mean, err = stats.Round(mean, 3)
	if err != nil {
		return nil, fmt.Errorf("summarize prices: %w", err)
	}
	return &FuelStats{Min: min, Max: max, Mean: mean, Municipalities: municipalities}, nil
}

// latestWindow returns the rows sharing the maximum readable period-end date.
// Rows whose period-end cell cannot be read take no part in the selection.
func latestWindow(rows []Row) ([]Row, time.Time, bool) {
	ends := make([]time.Time, len(rows))
	readable := make([]bool, len(rows))
	var (
		max   time.Time
		found bool
	)
	for i, row := range rows {
		end, err := ParseDate(row[ColPeriodEnd])
		if err != nil {
			continue
		}
		ends[i], readable[i] = end, true
		if !found || end.After(max) {
			max, found = end, true
		}
	}
	if !found {
		return nil, time.Time{}, false
	}
	var window []Row
	for i, row := range rows {
		if readable[i] && ends[i].Equal(max) {
			window = append(window, row)
		}
	}
	return window, max, true
}

// windowStart returns the earliest readable period-start among the window's
// rows, falling back to the window end when none parses.
func windowStart(window []Row, end time.Time) time.Time {
	var (
		min   time.Time
		found bool
	)
	for _, row := range window {
		start, err := ParseDate(row[ColPeriodStart])
		if err != nil {
			continue
		}
		if !found || start.Before(min) {
			min, found = start, true
		}
	}
	if !found {
		return end
	}
	return min
}
