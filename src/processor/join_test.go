package processor

import (
	"sort"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinFixture() (dataframe.DataFrame, dataframe.DataFrame) {
	left := dataframe.New(
		series.New([]string{"a", "b", "c", "NaN"}, series.String, "key"),
		series.New([]int{1, 2, 3, 4}, series.Int, "n"),
		series.New([]string{"l1", "l2", "l3", "l4"}, series.String, "label"),
	)
	right := dataframe.New(
		series.New([]string{"b", "a", "b", "NaN"}, series.String, "key"),
		series.New([]float64{2.5, 1.5, 2.75, 9}, series.Float, "x"),
		series.New([]string{"r1", "r2", "r3", "r4"}, series.String, "label"),
	)
	return left, right
}

func TestInnerJoin(t *testing.T) {
	left, right := joinFixture()
	out := join(left, right, "key", "key", innerJoin)
	require.NoError(t, out.Err)

	assert.Equal(t, []string{"key", "n", "label", "x"}, out.Names())
	// 左表顺序，右表重复 key 展开
	assert.Equal(t, []string{"a", "b", "b"}, column(out, "key"))
	assert.Equal(t, []float64{1.5, 2.5, 2.75}, out.Col("x").Float())
	// 同名列保留左表
	assert.Equal(t, []string{"l1", "l2", "l2"}, column(out, "label"))
}

func TestLeftJoin(t *testing.T) {
	left, right := joinFixture()
	out := join(left, right, "key", "key", leftJoin)
	require.NoError(t, out.Err)

	assert.Equal(t, 5, out.Nrow())
	x := out.Col("x")
	assert.True(t, x.Elem(3).IsNA(), "c 没有匹配")
	assert.True(t, x.Elem(4).IsNA(), "NA key 不参与匹配")
	n, err := out.Col("n").Elem(4).Int()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestJoinDifferentKeys(t *testing.T) {
	left := dataframe.New(series.New([]string{"1", "2"}, series.String, "customer_zip"))
	right := dataframe.New(
		series.New([]string{"2"}, series.String, "zip"),
		series.New([]string{"SP"}, series.String, "state"),
	)
	out := join(left, right, "customer_zip", "zip", innerJoin)
	assert.Equal(t, []string{"customer_zip", "zip", "state"}, out.Names())
	assert.Equal(t, 1, out.Nrow())
}

func TestJoinEmpty(t *testing.T) {
	left, right := joinFixture()
	none := join(left, takeRows(right, nil), "key", "key", innerJoin)
	require.NoError(t, none.Err)
	assert.Equal(t, 0, none.Nrow())
	assert.Equal(t, []string{"key", "n", "label", "x"}, none.Names())

	padded := join(left, takeRows(right, nil), "key", "key", leftJoin)
	require.NoError(t, padded.Err)
	assert.Equal(t, 4, padded.Nrow())
	assert.True(t, padded.Col("x").Elem(0).IsNA())
}

func TestFirstPerKey(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"z1", "z2", "z1", "NaN"}, series.String, "zip"),
		series.New([]string{"first", "only", "second", "none"}, series.String, "city"),
	)
	out := firstPerKey(df, "zip")
	assert.Equal(t, []string{"first", "only"}, column(out, "city"))
}

func TestGroupRows(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "y", "x", "NaN", "y"}, series.String, "a"),
		series.New([]int{1, 1, 1, 1, 2}, series.Int, "b"),
	)
	groups := groupRows(df, "a", "b")
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"x", "1"}, groups[0].key)
	assert.Equal(t, []int{0, 2}, groups[0].rows)
	assert.Equal(t, []string{"y", "1"}, groups[1].key)
	assert.Equal(t, []string{"y", "2"}, groups[2].key)
}

func TestDropAndSelectColumns(t *testing.T) {
	left, _ := joinFixture()
	assert.Equal(t, []string{"key", "label"}, dropColumns(left, "n").Names())
	assert.Equal(t, []string{"label", "key"}, selectColumns(left, "label", "key").Names())
}

func TestNullableSeries(t *testing.T) {
	f := floatSeries([]float64{1.25, nan()}, "f")
	assert.Equal(t, series.Float, f.Type())
	assert.False(t, f.Elem(0).IsNA())
	assert.True(t, f.Elem(1).IsNA())

	i := intSeries([]int{3, 0}, []bool{true, false}, "i")
	assert.Equal(t, series.Int, i.Type())
	v, err := i.Elem(0).Int()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.True(t, i.Elem(1).IsNA())
}

func TestTables(t *testing.T) {
	tables := rawTables(t)

	counts := tables.RowCounts()
	assert.Equal(t, 4, counts[TableOrder])
	assert.Equal(t, 5, counts[TableOrderItem])
	assert.Len(t, counts, len(TableNames))

	_, err := tables.With("unknown", dataframe.New())
	assert.Error(t, err)

	replaced, err := tables.With(TableSeller, takeRows(tables.Seller, []int{0}))
	require.NoError(t, err)
	assert.Equal(t, 1, replaced.Seller.Nrow())
	assert.Equal(t, 2, tables.Seller.Nrow())

	var visited []string
	require.NoError(t, tables.Each(func(name string, _ dataframe.DataFrame) error {
		visited = append(visited, name)
		return nil
	}))
	assert.Equal(t, TableNames, visited)

	copied := tables.Copy()
	got, ok := copied.Get(TableCustomer)
	require.True(t, ok)
	assert.Equal(t, tables.Customer.Records(), got.Records())
	_, ok = copied.Get("unknown")
	assert.False(t, ok)
}

func TestColumnTypes(t *testing.T) {
	types := ColumnTypes()
	names := make([]string, 0, len(types))
	for name, typ := range types {
		assert.Equal(t, series.String, typ)
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Contains(t, names, "customer_zip_code_prefix")
	assert.Contains(t, names, "order_purchase_timestamp")

	// 邮编保留前导零
	customer := readCSV(t, customerCSV)
	assert.Equal(t, "01037", customer.Col("customer_zip_code_prefix").Elem(0).String())
}
