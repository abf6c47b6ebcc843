package file

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"OlistInsight/src/processor"
	"OlistInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawFixtures = map[string]string{
	processor.TableGeo: `geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state
01037,-23.54,-46.63,sao paulo,SP
`,
	processor.TableOrder: `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date
o1,c1,delivered,2017-10-02 10:56:33,2017-10-02 11:07:15,2017-10-04 19:55:00,2017-10-10 21:25:13,2017-10-18 00:00:00
o2,c1,shipped,2017-11-18 19:28:06,,,,2017-12-15 00:00:00
`,
	processor.TableOrderItem: `order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value
o1,1,p1,s1,2017-10-06 11:07:15,10.40,8.72
`,
	processor.TableOrderPayment: `order_id,payment_sequential,payment_type,payment_installments,payment_value
o1,1,credit_card,1,19.12
`,
	processor.TableOrderReview: `review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp
r1,o1,4,,,2017-10-11 00:00:00,2017-10-12 03:43:48
`,
	processor.TableProduct: `product_id,product_category_name,product_name_lenght,product_description_lenght,product_photos_qty,product_weight_g,product_length_cm,product_height_cm,product_width_cm
p1,brinquedos,40,287,1,225,16,10,14
`,
	processor.TableSeller: `seller_id,seller_zip_code_prefix,seller_city,seller_state
s1,13023,campinas,SP
`,
	processor.TableCustomer: `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,01037,sao paulo,SP
`,
	processor.TableProductCategory: `product_category_name,product_category_name_english
brinquedos,toys
`,
}

// writeRaw 在临时目录写入全部原始文件
func writeRaw(t *testing.T, dir string) {
	t.Helper()
	for table, body := range rawFixtures {
		require.NoError(t, os.WriteFile(filepath.Join(dir, RawFiles[table]), []byte(body), 0644))
	}
}

func TestLoadRaw(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)

	tables, err := LoadRaw(dir)
	require.NoError(t, err)

	counts := tables.RowCounts()
	assert.Equal(t, 2, counts[processor.TableOrder])
	assert.Equal(t, 1, counts[processor.TableGeo])

	// 时间和标识符保持字符串，数值自动推断
	assert.Equal(t, series.String, tables.Order.Col("order_purchase_timestamp").Type())
	assert.Equal(t, series.String, tables.Customer.Col("customer_zip_code_prefix").Type())
	assert.Equal(t, "01037", tables.Customer.Col("customer_zip_code_prefix").Elem(0).String())
	assert.Equal(t, series.Float, tables.OrderItem.Col("price").Type())
	assert.Equal(t, series.Int, tables.OrderReview.Col("review_score").Type())
	// 空字段为缺失
	assert.True(t, tables.Order.Col("order_delivered_customer_date").Elem(1).IsNA())
}

func TestLoadRawMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, RawFiles[processor.TableSeller])))

	_, err := LoadRaw(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "olist_sellers_dataset.csv")
}

func TestLoadRawMalformed(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	bad := "order_id,price\no1,1.0,extra\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, RawFiles[processor.TableOrderItem]), []byte(bad), 0644))

	_, err := LoadRaw(dir)
	assert.Error(t, err)
}

func TestLoadProcessed(t *testing.T) {
	dir := t.TempDir()
	for _, table := range processor.TableNames {
		body := "order_id,purchase_month,value\no1,2017-10-01,1.5\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProcessedFile(table)), []byte(body), 0644))
	}

	tables, err := LoadProcessed(dir)
	require.NoError(t, err)
	assert.Equal(t, series.String, tables.Order.Col("purchase_month").Type())
	assert.Equal(t, 1, tables.Product.Nrow())

	_, err = LoadProcessed(t.TempDir())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	sheet := dataframe.New(
		series.New([]string{"toys", "NaN", "bed_bath_table"}, series.String, "category_name"),
		series.New([]float64{101.6, 3, 10.4}, series.Float, "price"),
	)
	require.NoError(t, utils.SaveToExcel([]utils.Sheet{
		{Name: "kpi", Data: dataframe.New(series.New([]string{"x"}, series.String, "metric"))},
		{Name: "top_categories", Data: sheet},
	}, path))

	df, err := ReadXLSX(path, "top_categories")
	require.NoError(t, err)
	assert.Equal(t, []string{"category_name", "price"}, df.Names())
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, "toys", df.Col("category_name").Elem(0).String())
	assert.True(t, df.Col("category_name").Elem(1).IsNA())
	assert.InDelta(t, 101.6, df.Col("price").Elem(0).Float(), 1e-9)

	_, err = ReadXLSX(path, "missing")
	assert.Error(t, err)
}
