package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// 表名同时用作持久化文件名 <key>.csv 和日志标签
const (
	TableGeo             = "geo"
	TableOrder           = "order"
	TableOrderItem       = "order_item"
	TableOrderPayment    = "order_payment"
	TableOrderReview     = "order_review"
	TableProduct         = "product"
	TableSeller          = "seller"
	TableCustomer        = "customer"
	TableProductCategory = "product_category"
)

// TableNames 九张表的固定顺序
var TableNames = []string{
	TableGeo,
	TableOrder,
	TableOrderItem,
	TableOrderPayment,
	TableOrderReview,
	TableProduct,
	TableSeller,
	TableCustomer,
	TableProductCategory,
}

// Tables 一次流水线运行中的全部表
// 各转换步骤接收一份 Tables 并返回新的 Tables，不在原值上修改
type Tables struct {
	Geo             dataframe.DataFrame
	Order           dataframe.DataFrame
	OrderItem       dataframe.DataFrame
	OrderPayment    dataframe.DataFrame
	OrderReview     dataframe.DataFrame
	Product         dataframe.DataFrame
	Seller          dataframe.DataFrame
	Customer        dataframe.DataFrame
	ProductCategory dataframe.DataFrame
}

func (t *Tables) field(name string) *dataframe.DataFrame {
	switch name {
	case TableGeo:
		return &t.Geo
	case TableOrder:
		return &t.Order
	case TableOrderItem:
		return &t.OrderItem
	case TableOrderPayment:
		return &t.OrderPayment
	case TableOrderReview:
		return &t.OrderReview
	case TableProduct:
		return &t.Product
	case TableSeller:
		return &t.Seller
	case TableCustomer:
		return &t.Customer
	case TableProductCategory:
		return &t.ProductCategory
	}
	return nil
}

// Get 按表名取表
func (t Tables) Get(name string) (dataframe.DataFrame, bool) {
	df := t.field(name)
	if df == nil {
		return dataframe.DataFrame{}, false
	}
	return *df, true
}

// With 返回替换了指定表的新 Tables
func (t Tables) With(name string, df dataframe.DataFrame) (Tables, error) {
	slot := t.field(name)
	if slot == nil {
		return t, fmt.Errorf("未知的表: %s", name)
	}
	*slot = df
	return t, nil
}

// Each 按 TableNames 顺序遍历，fn 返回错误时立即停止
func (t Tables) Each(fn func(name string, df dataframe.DataFrame) error) error {
	for _, name := range TableNames {
		df, _ := t.Get(name)
		if err := fn(name, df); err != nil {
			return err
		}
	}
	return nil
}

// Copy 深拷贝每张表
func (t Tables) Copy() Tables {
	var out Tables
	for _, name := range TableNames {
		df, _ := t.Get(name)
		*out.field(name) = df.Copy()
	}
	return out
}

// RowCounts 各表行数
func (t Tables) RowCounts() map[string]int {
	counts := make(map[string]int, len(TableNames))
	for _, name := range TableNames {
		df, _ := t.Get(name)
		counts[name] = df.Nrow()
	}
	return counts
}

// Err 返回第一个带错误的表
func (t Tables) Err() error {
	return t.Each(func(name string, df dataframe.DataFrame) error {
		if df.Err != nil {
			return fmt.Errorf("表 %s: %w", name, df.Err)
		}
		return nil
	})
}
