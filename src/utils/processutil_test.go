package utils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{3, "3"},
		{999, "999"},
		{1000, "1,000"},
		{99441, "99,441"},
		{13591643, "13,591,643"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatThousands(tt.in))
	}
}

func TestFormatCurrencyTruncates(t *testing.T) {
	sum := decimal.NewFromFloat(10.40).Add(decimal.NewFromFloat(5.10)).Add(decimal.NewFromFloat(84.50))
	assert.Equal(t, "$100", FormatCurrency(sum))
	assert.Equal(t, "$1,234", FormatCurrency(decimal.NewFromFloat(1234.99)))
}

func TestParseTimeString(t *testing.T) {
	ts, ok := ParseTimeString("2017-10-02 10:56:33")
	require.True(t, ok)
	assert.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), ts)

	ts, ok = ParseTimeString("2018-01-01")
	require.True(t, ok)
	assert.Equal(t, 2018, ts.Year())

	for _, bad := range []string{"", "NaN", "not a date", "02/10/2017"} {
		_, ok := ParseTimeString(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseTimeElementNA(t *testing.T) {
	s := series.New([]string{"NaN", "2017-10-02 10:56:33"}, series.String, "ts")
	_, ok := ParseTime(s.Elem(0))
	assert.False(t, ok)
	_, ok = ParseTime(s.Elem(1))
	assert.True(t, ok)
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "Sao Paulo", DisplayCity("sao paulo"))
	assert.Equal(t, "Bed & Bath & Table", DisplayCategory("bed_bath_table"))
	assert.Equal(t, "Toys", DisplayCategory("toys"))
}

func TestHasColumnAndContains(t *testing.T) {
	df := dataframe.New(series.New([]string{"a"}, series.String, "order_id"))
	assert.True(t, HasColumn(df, "order_id"))
	assert.False(t, HasColumn(df, "price"))
	assert.True(t, Contains([]string{"SP", "RJ"}, "RJ"))
	assert.False(t, Contains([]int{1, 2}, 3))
}

func TestSaveToExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	kpi := dataframe.New(
		series.New([]string{"total_orders"}, series.String, "metric"),
		series.New([]string{"3"}, series.String, "value"),
	)
	sales := dataframe.New(
		series.New([]string{"toys", "NaN"}, series.String, "category_name"),
		series.New([]float64{12.5, 3}, series.Float, "sales"),
	)
	require.NoError(t, SaveToExcel([]Sheet{{Name: "kpi", Data: kpi}, {Name: "sales", Data: sales}}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"kpi", "sales"}, f.GetSheetList())
	v, err := f.GetCellValue("sales", "A2")
	require.NoError(t, err)
	assert.Equal(t, "toys", v)
	// NA 单元格为空
	v, err = f.GetCellValue("sales", "A3")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestSaveToExcelRequiresSheets(t *testing.T) {
	assert.Error(t, SaveToExcel(nil, filepath.Join(t.TempDir(), "x.xlsx")))
}
