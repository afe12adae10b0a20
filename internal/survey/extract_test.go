package survey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyProduct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		product string
		want    Category
		ok      bool
	}{
		{"GASOLINA COMUM", CategoryGasolinaComum, true},
		{"gasolina comum", CategoryGasolinaComum, true},
		{"GASOLINA ADITIVADA", "", false},
		{"ETANOL", CategoryEtanol, true},
		{"ETANOL HIDRATADO", CategoryEtanol, true},
		{"ÓLEO DIESEL", CategoryDiesel, true},
		{"OLEO DIESEL", CategoryDiesel, true},
		{"ÓLEO DIESEL S10", "", false},
		{"GNV", CategoryGNV, true},
		{"GLP", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ClassifyProduct(tt.product)
		require.Equal(t, tt.ok, ok, "product %q", tt.product)
		require.Equal(t, tt.want, got, "product %q", tt.product)
	}
}

func TestLatestPricesSelectsNewestWindow(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "GASOLINA COMUM", "9,99", "23/03/2025", "29/03/2025"),
		dataRow("GUARULHOS", "ETANOL", "9,99", "23/03/2025", "29/03/2025"),
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "ETANOL", "3,79", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "ÓLEO DIESEL", "6,15", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "GNV", "4,50", "30/03/2025", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	require.Equal(t, "2025-03-30", ext.PeriodStart.Format(DateLayout))
	require.Equal(t, "2025-04-05", ext.PeriodEnd.Format(DateLayout))
	requirePrice(t, 5.89, ext.Prices.GasolinaComum)
	requirePrice(t, 3.79, ext.Prices.Etanol)
	requirePrice(t, 6.15, ext.Prices.Diesel)
	requirePrice(t, 4.50, ext.Prices.GNV)
	require.Empty(t, ext.DuplicateProducts)
}

func TestLatestPricesFiltersMunicipality(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("OSASCO", "GASOLINA COMUM", "5,55", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	requirePrice(t, 5.89, ext.Prices.GasolinaComum)

	_, err = LatestPrices(rows, "SANTOS")
	require.ErrorIs(t, err, ErrNoData)

	_, err = LatestPrices(nil, "GUARULHOS")
	require.ErrorIs(t, err, ErrNoData)
}

func TestLatestPricesMunicipalityMatchIsLoose(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("  Guarulhos ", "ETANOL", "3,79", "30/03/2025", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "guarulhos")
	require.NoError(t, err)
	requirePrice(t, 3.79, ext.Prices.Etanol)
}

func TestLatestPricesMissingCategoryStaysNil(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "ÓLEO DIESEL S10", "6,40", "30/03/2025", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	requirePrice(t, 5.89, ext.Prices.GasolinaComum)
	require.Nil(t, ext.Prices.Etanol)
	require.Nil(t, ext.Prices.Diesel)
	require.Nil(t, ext.Prices.GNV)
}

func TestLatestPricesUnparseablePriceIsNil(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "GNV", "N/D", "30/03/2025", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	require.Nil(t, ext.Prices.GNV)
}

func TestLatestPricesDuplicateProductLastWins(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,95", "30/03/2025", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	requirePrice(t, 5.95, ext.Prices.GasolinaComum)
	require.Equal(t, []string{"GASOLINA COMUM"}, ext.DuplicateProducts)
}

func TestLatestPricesSkipsUnreadablePeriodEnd(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "GASOLINA COMUM", "9,99", "30/03/2025", "em breve"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	requirePrice(t, 5.89, ext.Prices.GasolinaComum)

	broken := []Row{
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "em breve"),
	}
	_, err = LatestPrices(broken, "GUARULHOS")
	require.ErrorIs(t, err, ErrNoData)
}

func TestLatestPricesPeriodStartFallsBackToEnd(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "ETANOL", "3,79", "???", "05/04/2025"),
	}

	ext, err := LatestPrices(rows, "GUARULHOS")
	require.NoError(t, err)
	require.Equal(t, ext.PeriodEnd, ext.PeriodStart)
}

func TestLatestSummary(t *testing.T) {
	t.Parallel()

	rows := []Row{
		dataRow("GUARULHOS", "GASOLINA COMUM", "5,89", "30/03/2025", "05/04/2025"),
		dataRow("OSASCO", "GASOLINA COMUM", "5,69", "30/03/2025", "05/04/2025"),
		dataRow("SANTOS", "GASOLINA COMUM", "6,09", "30/03/2025", "05/04/2025"),
		dataRow("GUARULHOS", "GNV", "4,50", "30/03/2025", "05/04/2025"),
		dataRow("SANTOS", "GNV", "N/D", "30/03/2025", "05/04/2025"),
		dataRow("CAMPINAS", "GASOLINA COMUM", "9,99", "23/03/2025", "29/03/2025"),
	}

	sum, err := LatestSummary(rows)
	require.NoError(t, err)
	require.Equal(t, "2025-03-30", sum.PeriodStart.Format(DateLayout))
	require.Equal(t, "2025-04-05", sum.PeriodEnd.Format(DateLayout))

	require.NotNil(t, sum.Fuels.GasolinaComum)
	require.InDelta(t, 5.69, sum.Fuels.GasolinaComum.Min, 1e-9)
	require.InDelta(t, 6.09, sum.Fuels.GasolinaComum.Max, 1e-9)
	require.InDelta(t, 5.89, sum.Fuels.GasolinaComum.Mean, 1e-9)
	require.Equal(t, 3, sum.Fuels.GasolinaComum.Municipalities)

	require.NotNil(t, sum.Fuels.GNV)
	require.Equal(t, 1, sum.Fuels.GNV.Municipalities)

	require.Nil(t, sum.Fuels.Etanol)
	require.Nil(t, sum.Fuels.Diesel)
}

func TestLatestSummaryNoData(t *testing.T) {
	t.Parallel()

	_, err := LatestSummary(nil)
	require.ErrorIs(t, err, ErrNoData)

	unpriced := []Row{
		dataRow("GUARULHOS", "QUEROSENE", "9,99", "30/03/2025", "05/04/2025"),
	}
	_, err = LatestSummary(unpriced)
	require.ErrorIs(t, err, ErrNoData)
}

// --- helpers ---

func dataRow(municipality, product, price, start, end string) Row {
	return Row{
		ColMunicipality: municipality,
		ColProduct:      product,
		ColAvgPrice:     price,
		ColPeriodStart:  start,
		ColPeriodEnd:    end,
	}
}

func requirePrice(t *testing.T, want float64, got *float64) {
	t.Helper()
	require.NotNil(t, got)
	require.InDelta(t, want, *got, 1e-9)
}
