package processor

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 原始列名 -> 规范列名，未列出的列保持不变
var canonicalNames = map[string]map[string]string{
	TableGeo: {
		"geolocation_zip_code_prefix": "zip_code_prefix",
		"geolocation_city":            "city",
		"geolocation_state":           "state",
		"geolocation_lat":             "latitude",
		"geolocation_lng":             "longitude",
	},
	TableCustomer: {
		"customer_unique_id":       "unique_id",
		"customer_zip_code_prefix": "zip_code_prefix",
		"customer_city":            "city",
		"customer_state":           "state",
	},
	TableProduct: {
		"product_photos_qty":         "photos_qty",
		"product_name_lenght":        "name_length",
		"product_description_lenght": "description_length",
		"product_weight_g":           "weight",
		"product_length_cm":          "length",
		"product_height_cm":          "height",
		"product_width_cm":           "width",
	},
	TableOrder: {
		"order_purchase_timestamp":      "purchase_timestamp",
		"order_approved_at":             "approved_timestamp",
		"order_delivered_customer_date": "delivered_customer_date",
		"order_delivered_carrier_date":  "delivered_carrier_date",
	},
	TableSeller: {
		"seller_zip_code_prefix": "zip_code_prefix",
		"seller_city":            "city",
		"seller_state":           "state",
	},
}

// CanonicalNames 返回某张表的重命名规则副本
func CanonicalNames(table string) map[string]string {
	out := make(map[string]string, len(canonicalNames[table]))
	for k, v := range canonicalNames[table] {
		out[k] = v
	}
	return out
}

// RenameColumns 按 mapping 重命名列，保持列顺序
// mapping 中源列不存在的条目直接跳过
func RenameColumns(df dataframe.DataFrame, mapping map[string]string) dataframe.DataFrame {
	if df.Err != nil || len(mapping) == 0 {
		return df
	}
	cols := make([]series.Series, 0, df.Ncol())
	for _, name := range df.Names() {
		col := df.Col(name)
		if newName, ok := mapping[name]; ok {
			col.Name = newName
		}
		cols = append(cols, col)
	}
	return dataframe.New(cols...)
}

// RenameAll 对所有表应用规范列名
func RenameAll(t Tables) Tables {
	out := t
	for table := range canonicalNames {
		df, _ := out.Get(table)
		// table 一定是已知表名
		out, _ = out.With(table, RenameColumns(df, CanonicalNames(table)))
	}
	return out
}

// 读取CSV时强制为字符串的列：标识符、邮编、时间
// 标识符和邮编按文本比较，时间由转换步骤解析
var stringColumns = []string{
	"order_id", "customer_id", "product_id", "seller_id", "review_id",
	"customer_unique_id", "unique_id",
	"geolocation_zip_code_prefix", "customer_zip_code_prefix", "seller_zip_code_prefix", "zip_code_prefix",
	"order_purchase_timestamp", "order_approved_at", "order_delivered_carrier_date",
	"order_delivered_customer_date", "order_estimated_delivery_date",
	"purchase_timestamp", "approved_timestamp", "delivered_carrier_date", "delivered_customer_date",
	"purchase_month", "shipping_limit_date",
	"review_creation_date", "review_answer_timestamp", "review_comment_title", "review_comment_message",
}

// ColumnTypes 读取CSV时的列类型覆盖，其余列自动推断
func ColumnTypes() map[string]series.Type {
	types := make(map[string]series.Type, len(stringColumns))
	for _, c := range stringColumns {
		types[c] = series.String
	}
	return types
}

// NaNValues 读取CSV时视为缺失的文本
func NaNValues() []string {
	return []string{"", "NA", "NaN", "<nil>"}
}
