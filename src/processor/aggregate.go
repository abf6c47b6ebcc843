package processor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"OlistInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// DefaultTopN 象限分析默认截取条数
const DefaultTopN = 10

// 数据覆盖的年份范围
const (
	MinYear = 2016
	MaxYear = 2019
)

// Quadrant 按销售额和 ARPU 相对均值的位置划分的象限
type Quadrant int

const (
	AboveSalesBelowARPU Quadrant = iota
	AboveSalesAboveARPU
	BelowSalesAboveARPU
	BelowSalesBelowARPU
)

// Quadrants 全部象限
var Quadrants = []Quadrant{AboveSalesBelowARPU, AboveSalesAboveARPU, BelowSalesAboveARPU, BelowSalesBelowARPU}

func (q Quadrant) String() string {
	switch q {
	case AboveSalesBelowARPU:
		return "above_sales_below_arpu"
	case AboveSalesAboveARPU:
		return "above_sales_above_arpu"
	case BelowSalesAboveARPU:
		return "below_sales_above_arpu"
	case BelowSalesBelowARPU:
		return "below_sales_below_arpu"
	default:
		return "unknown"
	}
}

func (q Quadrant) matches(sales, arpu, avgSales, avgARPU float64) bool {
	switch q {
	case AboveSalesBelowARPU:
		return sales > avgSales && arpu < avgARPU
	case AboveSalesAboveARPU:
		return sales > avgSales && arpu > avgARPU
	case BelowSalesAboveARPU:
		return sales < avgSales && arpu > avgARPU
	case BelowSalesBelowARPU:
		return sales < avgSales && arpu < avgARPU
	}
	return false
}

// SalesByRegionCategory 按 (类目, 大区) 汇总销售额和订单数
// customer(zip) -> geo(每个zip取第一行) -> order -> order_item -> product，全部内连接
func SalesByRegionCategory(t Tables) (dataframe.DataFrame, error) {
	if err := requireAll(
		check{t.Customer, TableCustomer, []string{"customer_id", "zip_code_prefix"}},
		check{t.Geo, TableGeo, []string{"zip_code_prefix", "region"}},
		check{t.Order, TableOrder, []string{"order_id", "customer_id"}},
		check{t.OrderItem, TableOrderItem, []string{"order_id", "product_id", "price"}},
		check{t.Product, TableProduct, []string{"product_id", "category_name"}},
	); err != nil {
		return dataframe.DataFrame{}, err
	}

	zips := firstPerKey(selectColumns(t.Geo, "zip_code_prefix", "region"), "zip_code_prefix")
	orders := join(selectColumns(t.Order, "order_id", "customer_id"),
		selectColumns(t.Customer, "customer_id", "zip_code_prefix"), "customer_id", "customer_id", innerJoin)
	orders = join(orders, zips, "zip_code_prefix", "zip_code_prefix", innerJoin)
	items := join(selectColumns(t.OrderItem, "order_id", "product_id", "price"),
		selectColumns(t.Product, "product_id", "category_name"), "product_id", "product_id", innerJoin)
	merged := join(orders, items, "order_id", "order_id", innerJoin)

	groups := groupRows(merged, "category_name", "region")
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].key[0] != groups[j].key[0] {
			return groups[i].key[0] < groups[j].key[0]
		}
		return groups[i].key[1] < groups[j].key[1]
	})

	price := merged.Col("price")
	categories := make([]string, len(groups))
	regions := make([]string, len(groups))
	sales := make([]float64, len(groups))
	counts := make([]int, len(groups))
	for i, g := range groups {
		categories[i], regions[i] = g.key[0], g.key[1]
		sales[i] = sumDecimal(price, g.rows).InexactFloat64()
		counts[i] = len(g.rows)
	}
	out := dataframe.New(
		stringSeries(categories, nil, "category_name"),
		stringSeries(regions, nil, "region"),
		floatSeries(sales, "sales"),
		intSeries(counts, nil, "order_count"),
	)
	return out, out.Err
}

// CalculateARPU 增加 ARPU = round(sales/order_count, 2) 列并按 ARPU 降序排列
// 0.005 恰好居中时取偶数
func CalculateARPU(salesByRegion dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(salesByRegion, "sales_by_region", "sales", "order_count"); err != nil {
		return salesByRegion, err
	}
	sales := salesByRegion.Col("sales").Float()
	counts := salesByRegion.Col("order_count").Float()
	arpu := make([]float64, len(sales))
	for i := range sales {
		if counts[i] == 0 || math.IsNaN(counts[i]) {
			arpu[i] = math.NaN()
			continue
		}
		arpu[i] = math.RoundToEven(sales[i]/counts[i]*100) / 100
	}
	withARPU := salesByRegion.Mutate(floatSeries(arpu, "ARPU"))
	out := takeRows(withARPU, sortedRows(arpu, true))
	return out, out.Err
}

// SelectQuadrant 选出落在象限内的分组(与均值严格比较)，按销售额升序取前 topN
//
// 升序截取得到的是象限内销售额最小的 topN 个分组。
func SelectQuadrant(arpu dataframe.DataFrame, q Quadrant, topN int) (dataframe.DataFrame, error) {
	if err := requireColumns(arpu, "sales_by_region", "sales", "ARPU"); err != nil {
		return arpu, err
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	sales := arpu.Col("sales").Float()
	values := arpu.Col("ARPU").Float()
	avgSales, avgARPU := nanMean(sales), nanMean(values)

	var rows []int
	for i := range sales {
		if q.matches(sales[i], values[i], avgSales, avgARPU) {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return sales[rows[i]] < sales[rows[j]] })
	if len(rows) > topN {
		rows = rows[:topN]
	}
	out := takeRows(arpu, rows)
	return out, out.Err
}

// QuadrantTimeline 对选中的类目统计某一年每月的订单明细数
// 同一类目在选中结果中出现多次(不同大区)只计一次
func QuadrantTimeline(selected dataframe.DataFrame, t Tables, year int) (dataframe.DataFrame, error) {
	if year < MinYear || year > MaxYear {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %d 不在 %d-%d", ErrInvalidYear, year, MinYear, MaxYear)
	}
	if err := requireAll(
		check{selected, "selected", []string{"category_name"}},
		check{t.Order, TableOrder, []string{"order_id", "purchase_month"}},
		check{t.OrderItem, TableOrderItem, []string{"order_id", "product_id"}},
		check{t.Product, TableProduct, []string{"product_id", "category_name"}},
	); err != nil {
		return dataframe.DataFrame{}, err
	}

	wanted := make(map[string]struct{})
	for _, c := range selected.Col("category_name").Records() {
		wanted[c] = struct{}{}
	}

	merged := join(selectColumns(t.Order, "order_id", "purchase_month"),
		selectColumns(t.OrderItem, "order_id", "product_id"), "order_id", "order_id", innerJoin)
	merged = join(merged, selectColumns(t.Product, "product_id", "category_name"), "product_id", "product_id", innerJoin)

	if merged.Nrow() > 0 {
		merged = merged.Filter(dataframe.F{
			Colname:    "category_name",
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				_, ok := wanted[el.String()]
				return !el.IsNA() && ok
			},
		})
	}
	if merged.Nrow() > 0 {
		merged = merged.Filter(dataframe.F{
			Colname:    "purchase_month",
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				ts, ok := utils.ParseTime(el)
				return ok && ts.Year() == year
			},
		})
	}
	if merged.Err != nil {
		return dataframe.DataFrame{}, merged.Err
	}

	groups := groupRows(merged, "purchase_month", "category_name")
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].key[0] != groups[j].key[0] {
			return groups[i].key[0] < groups[j].key[0]
		}
		return groups[i].key[1] < groups[j].key[1]
	})
	months := make([]string, len(groups))
	categories := make([]string, len(groups))
	counts := make([]int, len(groups))
	for i, g := range groups {
		months[i], categories[i], counts[i] = g.key[0], g.key[1], len(g.rows)
	}
	out := dataframe.New(
		stringSeries(months, nil, "purchase_month"),
		stringSeries(categories, nil, "category_name"),
		intSeries(counts, nil, "order_count"),
	)
	return out, out.Err
}

// TopCategories 销售额最高的 n 个类目，price_pct 为占这 n 个类目合计的百分比
func TopCategories(t Tables, n int) (dataframe.DataFrame, error) {
	categories, totals, err := categorySales(t)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	rows := sortedRows(totals, true)
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	var sum float64
	for _, r := range rows {
		sum += totals[r]
	}
	names := make([]string, len(rows))
	price := make([]float64, len(rows))
	pct := make([]float64, len(rows))
	for i, r := range rows {
		names[i], price[i] = categories[r], totals[r]
		pct[i] = 100 * totals[r] / sum
	}
	out := dataframe.New(
		stringSeries(names, nil, "category_name"),
		floatSeries(price, "price"),
		floatSeries(pct, "price_pct"),
	)
	return out, out.Err
}

// 配送缺失统计的类型标签
const (
	CarrierNulls       = "Carrier Delivery Nulls"
	CarrierNotMissing  = "Carrier Delivery Not Missing"
	CustomerNulls      = "Customer Delivery Nulls"
	CustomerNotMissing = "Customer Delivery Not Missing"
)

// DeliveryNulls 按下单月份统计揽收/签收时间缺失与不缺失的订单数
// 同时接受原始列名和规范列名
func DeliveryNulls(order dataframe.DataFrame) (carrier, customer dataframe.DataFrame, err error) {
	carrierCol, err := firstColumn(order, TableOrder, "delivered_carrier_date", "order_delivered_carrier_date")
	if err != nil {
		return carrier, customer, err
	}
	customerCol, err := firstColumn(order, TableOrder, "delivered_customer_date", "order_delivered_customer_date")
	if err != nil {
		return carrier, customer, err
	}
	months, err := purchaseMonths(order)
	if err != nil {
		return carrier, customer, err
	}

	carrier = nullCounts(months, order.Col(carrierCol), CarrierNulls, CarrierNotMissing)
	customer = nullCounts(months, order.Col(customerCol), CustomerNulls, CustomerNotMissing)
	if carrier.Err != nil {
		return carrier, customer, carrier.Err
	}
	return carrier, customer, customer.Err
}

func purchaseMonths(order dataframe.DataFrame) ([]string, error) {
	if utils.HasColumn(order, "purchase_month") {
		col := order.Col("purchase_month")
		out := make([]string, col.Len())
		for i := 0; i < col.Len(); i++ {
			if ts, ok := utils.ParseTime(col.Elem(i)); ok {
				out[i] = ts.Format(utils.DateLayout)
			}
		}
		return out, nil
	}
	name, err := firstColumn(order, TableOrder, "purchase_timestamp", "order_purchase_timestamp")
	if err != nil {
		return nil, err
	}
	col := order.Col(name)
	out := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		if ts, ok := utils.ParseTime(col.Elem(i)); ok {
			out[i] = time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC).Format(utils.DateLayout)
		}
	}
	return out, nil
}

// nullCounts 月份为空的行不计入
func nullCounts(months []string, col series.Series, nullLabel, presentLabel string) dataframe.DataFrame {
	missing := make(map[string]int)
	present := make(map[string]int)
	for i, m := range months {
		if m == "" {
			continue
		}
		e := col.Elem(i)
		if e.IsNA() || e.String() == "" {
			missing[m]++
		} else {
			present[m]++
		}
	}

	var month, label []string
	var count []int
	for _, part := range []struct {
		counts map[string]int
		label  string
	}{{missing, nullLabel}, {present, presentLabel}} {
		keys := make([]string, 0, len(part.counts))
		for k := range part.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			month = append(month, k)
			count = append(count, part.counts[k])
			label = append(label, part.label)
		}
	}
	return dataframe.New(
		stringSeries(month, nil, "purchase_month"),
		intSeries(count, nil, "null_count"),
		stringSeries(label, nil, "type"),
	)
}

// TotalRevenue 订单明细价格合计，截断为整数并加千分位，例如 "$13,591,643"
func TotalRevenue(t Tables) (string, error) {
	if err := requireColumns(t.OrderItem, TableOrderItem, "price"); err != nil {
		return "", err
	}
	price := t.OrderItem.Col("price")
	return utils.FormatCurrency(sumDecimal(price, nil)), nil
}

// TotalOrders 不同 order_id 的数量
func TotalOrders(t Tables) (string, error) {
	return distinctCount(t.Order, TableOrder, "order_id")
}

// TotalCustomers 不同 customer_id 的数量
func TotalCustomers(t Tables) (string, error) {
	return distinctCount(t.Customer, TableCustomer, "customer_id")
}

// TotalProducts 不同 product_id 的数量
func TotalProducts(t Tables) (string, error) {
	return distinctCount(t.Product, TableProduct, "product_id")
}

func distinctCount(df dataframe.DataFrame, table, column string) (string, error) {
	if err := requireColumns(df, table, column); err != nil {
		return "", err
	}
	col := df.Col(column)
	seen := make(map[string]struct{}, col.Len())
	for i := 0; i < col.Len(); i++ {
		if e := col.Elem(i); !e.IsNA() {
			seen[e.String()] = struct{}{}
		}
	}
	return utils.FormatThousands(int64(len(seen))), nil
}

// HighestSellingCity 订单明细数最多的城市(经客户邮编取 geo 中该邮编第一行的城市)
// 并列时取最先出现的
func HighestSellingCity(t Tables) (string, error) {
	if err := requireAll(
		check{t.Order, TableOrder, []string{"order_id", "customer_id"}},
		check{t.OrderItem, TableOrderItem, []string{"order_id"}},
		check{t.Customer, TableCustomer, []string{"customer_id", "zip_code_prefix"}},
		check{t.Geo, TableGeo, []string{"zip_code_prefix", "city"}},
	); err != nil {
		return "", err
	}
	merged := join(selectColumns(t.Order, "order_id", "customer_id"), selectColumns(t.OrderItem, "order_id"), "order_id", "order_id", leftJoin)
	merged = join(merged, selectColumns(t.Customer, "customer_id", "zip_code_prefix"), "customer_id", "customer_id", leftJoin)
	merged = join(merged, firstPerKey(selectColumns(t.Geo, "zip_code_prefix", "city"), "zip_code_prefix"), "zip_code_prefix", "zip_code_prefix", leftJoin)

	groups := groupRows(merged, "city")
	best := -1
	for i, g := range groups {
		if best < 0 || len(g.rows) > len(groups[best].rows) {
			best = i
		}
	}
	if best < 0 {
		return "", fmt.Errorf("%w: 没有可统计的城市", ErrEmptySample)
	}
	return groups[best].key[0], nil
}

// HighestSellingCategory 销售额最高的类目，并列时取最先出现的
func HighestSellingCategory(t Tables) (string, error) {
	categories, totals, err := categorySales(t)
	if err != nil {
		return "", err
	}
	best := -1
	for i := range totals {
		if best < 0 || totals[i] > totals[best] {
			best = i
		}
	}
	if best < 0 {
		return "", fmt.Errorf("%w: 没有可统计的类目", ErrEmptySample)
	}
	return categories[best], nil
}

// categorySales order_item ⋈ product 后按类目汇总价格，类目按首次出现排列
func categorySales(t Tables) ([]string, []float64, error) {
	if err := requireAll(
		check{t.OrderItem, TableOrderItem, []string{"product_id", "price"}},
		check{t.Product, TableProduct, []string{"product_id", "category_name"}},
	); err != nil {
		return nil, nil, err
	}
	merged := join(selectColumns(t.OrderItem, "product_id", "price"),
		selectColumns(t.Product, "product_id", "category_name"), "product_id", "product_id", innerJoin)
	price := merged.Col("price")
	groups := groupRows(merged, "category_name")
	names := make([]string, len(groups))
	totals := make([]float64, len(groups))
	for i, g := range groups {
		names[i] = g.key[0]
		totals[i] = sumDecimal(price, g.rows).InexactFloat64()
	}
	return names, totals, nil
}

// SalesOverTime 按 年、月、类目 汇总价格
func SalesOverTime(t Tables) (dataframe.DataFrame, error) {
	if err := requireAll(
		check{t.Order, TableOrder, []string{"order_id", "purchase_timestamp"}},
		check{t.OrderItem, TableOrderItem, []string{"order_id", "product_id", "price"}},
		check{t.Product, TableProduct, []string{"product_id", "category_name"}},
	); err != nil {
		return dataframe.DataFrame{}, err
	}

	ts := t.Order.Col("purchase_timestamp")
	n := ts.Len()
	years := make([]int, n)
	months := make([]int, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if p, ok := utils.ParseTime(ts.Elem(i)); ok {
			years[i], months[i], valid[i] = p.Year(), int(p.Month()), true
		}
	}
	orders := selectColumns(t.Order, "order_id").
		Mutate(intSeries(years, valid, "year")).
		Mutate(intSeries(months, valid, "month"))
	items := join(selectColumns(t.OrderItem, "order_id", "product_id", "price"),
		selectColumns(t.Product, "product_id", "category_name"), "product_id", "product_id", innerJoin)
	merged := join(orders, items, "order_id", "order_id", innerJoin)

	type key struct{ year, month int }
	groups := groupRows(merged, "year", "month", "category_name")
	keys := make([]key, len(groups))
	for i, g := range groups {
		y, _ := strconv.Atoi(g.key[0])
		m, _ := strconv.Atoi(g.key[1])
		keys[i] = key{y, m}
	}
	idx := make([]int, len(groups))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.year != kb.year {
			return ka.year < kb.year
		}
		if ka.month != kb.month {
			return ka.month < kb.month
		}
		return groups[idx[a]].key[2] < groups[idx[b]].key[2]
	})

	price := merged.Col("price")
	outYear := make([]int, len(idx))
	outMonth := make([]int, len(idx))
	names := make([]string, len(idx))
	monthNames := make([]string, len(idx))
	totals := make([]float64, len(idx))
	for i, gi := range idx {
		g := groups[gi]
		outYear[i], outMonth[i] = keys[gi].year, keys[gi].month
		names[i] = g.key[2]
		monthNames[i] = time.Month(keys[gi].month).String()
		totals[i] = sumDecimal(price, g.rows).InexactFloat64()
	}
	out := dataframe.New(
		intSeries(outYear, nil, "year"),
		intSeries(outMonth, nil, "month"),
		stringSeries(names, nil, "category_name"),
		floatSeries(totals, "price"),
		stringSeries(monthNames, nil, "month_name"),
	)
	return out, out.Err
}

// PaymentTypeShare 各支付方式的付款金额及占比，按金额降序
func PaymentTypeShare(t Tables) (dataframe.DataFrame, error) {
	if err := requireColumns(t.OrderPayment, TableOrderPayment, "payment_type", "payment_value"); err != nil {
		return dataframe.DataFrame{}, err
	}
	value := t.OrderPayment.Col("payment_value")
	groups := groupRows(t.OrderPayment, "payment_type")
	types := make([]string, len(groups))
	totals := make([]float64, len(groups))
	var sum float64
	for i, g := range groups {
		types[i] = g.key[0]
		totals[i] = sumDecimal(value, g.rows).InexactFloat64()
		sum += totals[i]
	}
	rows := sortedRows(totals, true)
	outTypes := make([]string, len(rows))
	outTotals := make([]float64, len(rows))
	pct := make([]float64, len(rows))
	for i, r := range rows {
		outTypes[i], outTotals[i] = types[r], totals[r]
		pct[i] = 100 * totals[r] / sum
	}
	out := dataframe.New(
		stringSeries(outTypes, nil, "payment_type"),
		floatSeries(outTotals, "payment_value"),
		floatSeries(pct, "pct"),
	)
	return out, out.Err
}

// DeliveryByReviewScore 按评分统计配送天数的数量、均值、中位数
// order ⋈ review 左连接，没有评分的订单不参与统计
func DeliveryByReviewScore(t Tables) (dataframe.DataFrame, error) {
	if err := requireAll(
		check{t.Order, TableOrder, []string{"order_id", "delivery_time"}},
		check{t.OrderReview, TableOrderReview, []string{"order_id", "review_score"}},
	); err != nil {
		return dataframe.DataFrame{}, err
	}
	merged := join(selectColumns(t.Order, "order_id", "delivery_time"),
		selectColumns(t.OrderReview, "order_id", "review_score"), "order_id", "order_id", leftJoin)

	groups := groupRows(merged, "review_score")
	scores := make([]float64, len(groups))
	for i, g := range groups {
		scores[i], _ = strconv.ParseFloat(g.key[0], 64)
	}
	idx := sortedRows(scores, false)

	delivery := merged.Col("delivery_time").Float()
	outScores := make([]float64, len(idx))
	counts := make([]int, len(idx))
	means := make([]float64, len(idx))
	medians := make([]float64, len(idx))
	for i, gi := range idx {
		var values []float64
		for _, r := range groups[gi].rows {
			if !math.IsNaN(delivery[r]) {
				values = append(values, delivery[r])
			}
		}
		outScores[i] = scores[gi]
		counts[i] = len(values)
		means[i], medians[i] = math.NaN(), math.NaN()
		if len(values) > 0 {
			means[i] = stat.Mean(values, nil)
			medians[i] = percentile(values, 50)
		}
	}
	out := dataframe.New(
		floatSeries(outScores, "review_score"),
		intSeries(counts, nil, "order_count"),
		floatSeries(means, "mean_delivery_time"),
		floatSeries(medians, "median_delivery_time"),
	)
	return out, out.Err
}

// Missingness 每列的缺失数和缺失比例
func Missingness(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	names := df.Names()
	counts := make([]int, len(names))
	ratios := make([]float64, len(names))
	rows := df.Nrow()
	for i, name := range names {
		col := df.Col(name)
		for j := 0; j < col.Len(); j++ {
			if col.Elem(j).IsNA() {
				counts[i]++
			}
		}
		ratios[i] = math.NaN()
		if rows > 0 {
			ratios[i] = float64(counts[i]) / float64(rows)
		}
	}
	out := dataframe.New(
		stringSeries(names, nil, "column"),
		intSeries(counts, nil, "null_count"),
		floatSeries(ratios, "null_ratio"),
	)
	return out, out.Err
}

// OrderCorrelation 对 order ⋈ order_item ⋈ order_payment ⋈ order_review(左连接) 的数值列
// 计算 Pearson 相关系数矩阵，每对列只使用两列都不缺失的行
func OrderCorrelation(t Tables) (dataframe.DataFrame, error) {
	if err := requireAll(
		check{t.Order, TableOrder, []string{"order_id"}},
		check{t.OrderItem, TableOrderItem, []string{"order_id"}},
		check{t.OrderPayment, TableOrderPayment, []string{"order_id"}},
		check{t.OrderReview, TableOrderReview, []string{"order_id"}},
	); err != nil {
		return dataframe.DataFrame{}, err
	}
	merged := join(t.Order, t.OrderItem, "order_id", "order_id", innerJoin)
	merged = join(merged, t.OrderPayment, "order_id", "order_id", innerJoin)
	merged = join(merged, t.OrderReview, "order_id", "order_id", leftJoin)

	var names []string
	var values [][]float64
	for _, name := range merged.Names() {
		col := merged.Col(name)
		if col.Type() == series.Int || col.Type() == series.Float {
			names = append(names, name)
			values = append(values, col.Float())
		}
	}

	cols := make([]series.Series, 0, len(names)+1)
	cols = append(cols, stringSeries(names, nil, "column"))
	for j := range names {
		corr := make([]float64, len(names))
		for i := range names {
			corr[i] = pairwiseCorrelation(values[i], values[j])
		}
		cols = append(cols, floatSeries(corr, names[j]))
	}
	out := dataframe.New(cols...)
	return out, out.Err
}

func pairwiseCorrelation(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// check 一张表需要的列
type check struct {
	df      dataframe.DataFrame
	table   string
	columns []string
}

func requireAll(checks ...check) error {
	for _, c := range checks {
		if err := requireColumns(c.df, c.table, c.columns...); err != nil {
			return err
		}
	}
	return nil
}

// firstColumn 返回候选列名中第一个存在的
func firstColumn(df dataframe.DataFrame, table string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if utils.HasColumn(df, c) {
			return c, nil
		}
	}
	return "", missingColumn(table, candidates[0])
}

// sumDecimal 对指定行求和，rows 为 nil 时对整列求和，NA 跳过
func sumDecimal(col series.Series, rows []int) decimal.Decimal {
	sum := decimal.Zero
	add := func(i int) {
		if e := col.Elem(i); !e.IsNA() {
			sum = sum.Add(decimal.NewFromFloat(e.Float()))
		}
	}
	if rows == nil {
		for i := 0; i < col.Len(); i++ {
			add(i)
		}
		return sum
	}
	for _, r := range rows {
		add(r)
	}
	return sum
}

// sortedRows 稳定排序后的行号，NaN 排在最后
func sortedRows(values []float64, desc bool) []int {
	rows := make([]int, len(values))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		va, vb := values[rows[a]], values[rows[b]]
		if math.IsNaN(va) || math.IsNaN(vb) {
			return !math.IsNaN(va) && math.IsNaN(vb)
		}
		if desc {
			return va > vb
		}
		return va < vb
	})
	return rows
}

func nanMean(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}
