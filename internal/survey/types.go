package survey

import (
	"errors"
	"time"
)

// Column headers as published in the weekly workbook. Lookups run against
// trimmed, uppercased header text, so the accents must match the source.
const (
	ColMunicipality = "MUNICÍPIO"
	ColProduct      = "PRODUTO"
	ColAvgPrice     = "PREÇO MÉDIO REVENDA"
	ColPeriodStart  = "DATA INICIAL"
	ColPeriodEnd    = "DATA FINAL"
)

// DateLayout is the wire format for reporting-period dates.
const DateLayout = "2006-01-02"

var (
	// ErrNoData signals the report carried no usable rows for the request.
	ErrNoData = errors.New("no data found")
	// ErrNoReportLink signals the index page carried no recognizable weekly
	// report link.
	ErrNoReportLink = errors.New("no weekly report link found")
)

// Row maps a normalized column header to the raw cell text of one data row.
// Cells that are empty in the source are absent from the map.
type Row map[string]string

// Category identifies one of the fuel categories the endpoint tracks. The
// values double as JSON field names.
type Category string

const (
	CategoryGasolinaComum Category = "gasolinaComum"
	CategoryEtanol        Category = "etanol"
	CategoryDiesel        Category = "diesel"
	CategoryGNV           Category = "gnv"
)

// PriceRecord holds the average resale price per category for one reporting
// window. A nil field means the source had no usable row for that category.
type PriceRecord struct {
	GasolinaComum *float64 `json:"gasolinaComum"`
	Etanol        *float64 `json:"etanol"`
	Diesel        *float64 `json:"diesel"`
	GNV           *float64 `json:"gnv"`
}

func (p *PriceRecord) set(cat Category, value *float64) {
	switch cat {
	case CategoryGasolinaComum:
		p.GasolinaComum = value
	case CategoryEtanol:
		p.Etanol = value
	case CategoryDiesel:
		p.Diesel = value
	case CategoryGNV:
		p.GNV = value
	}
}

// Extraction is the result of reducing a report to one municipality's latest
// reporting window.
type Extraction struct {
	Prices      PriceRecord
	PeriodStart time.Time
	PeriodEnd   time.Time
	// DuplicateProducts lists product cells that matched an already-assigned
	// category inside the window. The source is not expected to carry
	// duplicates; last write wins when it does, and callers should log these.
	DuplicateProducts []string
}

// FuelStats summarizes one category across every municipality in a window.
type FuelStats struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Mean           float64 `json:"mean"`
	Municipalities int     `json:"municipalities"`
}

// SummaryRecord carries per-category statistics. A nil field means no
// municipality reported a usable price for that category.
type SummaryRecord struct {
	GasolinaComum *FuelStats `json:"gasolinaComum"`
	Etanol        *FuelStats `json:"etanol"`
	Diesel        *FuelStats `json:"diesel"`
	GNV           *FuelStats `json:"gnv"`
}

func (s *SummaryRecord) set(cat Category, stats *FuelStats) {
	switch cat {
	case CategoryGasolinaComum:
		s.GasolinaComum = stats
	case CategoryEtanol:
		s.Etanol = stats
	case CategoryDiesel:
		s.Diesel = stats
	case CategoryGNV:
		s.GNV = stats
	}
}

// SummaryExtraction is the result of aggregating the latest reporting window
// across all municipalities.
type SummaryExtraction struct {
	Fuels       SummaryRecord
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Payload is the JSON body served on success.
type Payload struct {
	Success     bool        `json:"success"`
	Data        PriceRecord `json:"data"`
	PeriodStart string      `json:"periodStart"`
	PeriodEnd   string      `json:"periodEnd"`
	SourceURL   string      `json:"sourceUrl,omitempty"`
	UpdatedAt   string      `json:"updatedAt"`
}

// SummaryPayload is the JSON body served by the summary endpoint.
type SummaryPayload struct {
	Success     bool          `json:"success"`
	Data        SummaryRecord `json:"data"`
	PeriodStart string        `json:"periodStart"`
	PeriodEnd   string        `json:"periodEnd"`
	SourceURL   string        `json:"sourceUrl,omitempty"`
	UpdatedAt   string        `json:"updatedAt"`
}

// ErrorPayload is the JSON body served on any failure.
type ErrorPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
