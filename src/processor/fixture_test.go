package processor

import (
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

const (
	geoCSV = `geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state
01037,-23.54,-46.63,sao paulo,SP
01037,-23.55,-46.64,sao paulo centro,SP
20040,-22.90,-43.17,rio de janeiro,RJ
69900,-9.97,-67.81,rio branco,AC
`
	orderCSV = `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date
o1,c1,delivered,2017-10-02 10:56:33,2017-10-02 11:07:15,2017-10-04 19:55:00,2017-10-10 21:25:13,2017-10-18 00:00:00
o2,c2,delivered,2018-07-24 20:41:37,2018-07-26 03:24:27,2018-07-26 14:31:00,2018-08-07 15:27:45,2018-08-13 00:00:00
o3,c3,shipped,2018-08-08 08:38:49,2018-08-08 08:55:23,,,2018-08-17 00:00:00
o4,c1,delivered,2017-11-18 19:28:06,2017-11-18 19:45:59,2017-11-22 13:39:59,2017-12-02 00:28:42,2017-12-15 00:00:00
`
	orderItemCSV = `order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value
o1,1,p1,s1,2017-10-06 11:07:15,10.40,8.72
o2,1,p2,s2,2018-07-30 03:24:27,5.10,22.76
o3,1,p2,s2,2018-08-13 08:55:23,84.50,19.22
o4,1,p4,s1,2017-11-23 19:45:59,12.00,5.00
o4,2,p3,s1,2017-11-23 19:45:59,7.00,5.00
`
	orderPaymentCSV = `order_id,payment_sequential,payment_type,payment_installments,payment_value
o1,1,credit_card,1,19.12
o2,1,boleto,1,27.86
o3,1,credit_card,3,103.72
o4,1,voucher,1,10.00
o4,2,credit_card,1,7.00
`
	orderReviewCSV = `review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp
r1,o1,4,,,2017-10-11 00:00:00,2017-10-12 03:43:48
r2,o2,5,,ok,2018-08-08 00:00:00,2018-08-08 18:37:50
r3,o3,1,,,2018-08-18 00:00:00,2018-08-22 19:07:58
`
	productCSV = `product_id,product_category_name,product_name_lenght,product_description_lenght,product_photos_qty,product_weight_g,product_length_cm,product_height_cm,product_width_cm
p1,cama_mesa_banho,40,287,1,225,16,10,14
p2,brinquedos,44,276,1,1000,30,18,20
p3,sem_traducao,46,250,1,154,18,9,15
p4,brinquedos,50,300,2,500,20,,10
`
	sellerCSV = `seller_id,seller_zip_code_prefix,seller_city,seller_state
s1,13023,campinas,SP
s2,20040,rio de janeiro,RJ
`
	customerCSV = `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,01037,sao paulo,SP
c2,u2,20040,rio de janeiro,RJ
c3,u3,69900,rio branco,AC
c4,u4,99999,nowhere,XX
`
	productCategoryCSV = `product_category_name,product_category_name_english
cama_mesa_banho,bed_bath_table
brinquedos,toys
`
)

func readCSV(t *testing.T, body string) dataframe.DataFrame {
	t.Helper()
	df := dataframe.ReadCSV(strings.NewReader(body),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(ColumnTypes()),
		dataframe.NaNValues(NaNValues()),
	)
	require.NoError(t, df.Err)
	return df
}

// rawTables 小样本原始数据
func rawTables(t *testing.T) Tables {
	t.Helper()
	return Tables{
		Geo:             readCSV(t, geoCSV),
		Order:           readCSV(t, orderCSV),
		OrderItem:       readCSV(t, orderItemCSV),
		OrderPayment:    readCSV(t, orderPaymentCSV),
		OrderReview:     readCSV(t, orderReviewCSV),
		Product:         readCSV(t, productCSV),
		Seller:          readCSV(t, sellerCSV),
		Customer:        readCSV(t, customerCSV),
		ProductCategory: readCSV(t, productCategoryCSV),
	}
}

// transformedTables 固定随机种子的转换结果
func transformedTables(t *testing.T) Tables {
	t.Helper()
	out, _, err := Transform(rawTables(t), rand.NewSource(42))
	require.NoError(t, err)
	return out
}

func column(df dataframe.DataFrame, name string) []string {
	return df.Col(name).Records()
}
