package processor

import (
	"math"
	"time"

	"OlistInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 订单表的四个时间列
var orderTimeColumns = []string{
	"purchase_timestamp",
	"approved_timestamp",
	"delivered_carrier_date",
	"delivered_customer_date",
}

// SpendingBins 客户消费分档数
const SpendingBins = 3

// Report 一次转换的统计
type Report struct {
	ImputedDelivery    int       // 随机插补的 delivery_time 行数
	BackfilledCustomer int       // 回填的 delivered_customer_date 行数
	BackfilledCarrier  int       // 回填的 delivered_carrier_date 行数
	DeliveryMean       float64   // 已知配送天数均值
	DeliveryStd        float64   // 已知配送天数样本标准差
	DroppedProducts    int       // 没有英文类目而被丢弃的商品
	DroppedCustomers   int       // 没有付款记录而被丢弃的客户
	SpendingEdges      []float64 // 消费分档边界
}

// Transformer 按固定顺序执行全部转换步骤
type Transformer struct {
	Regions map[string]string
	Source  rand.Source
}

// NewTransformer src 为 nil 时使用 x/exp/rand 的全局源
func NewTransformer(src rand.Source) *Transformer {
	return &Transformer{Regions: StateRegions(), Source: src}
}

// Transform 使用默认区域表执行转换
func Transform(t Tables, src rand.Source) (Tables, Report, error) {
	return NewTransformer(src).Run(t)
}

// Run 执行转换，任一步出错立即返回，不产生部分结果
func (tr *Transformer) Run(in Tables) (Tables, Report, error) {
	var rep Report
	if err := in.Err(); err != nil {
		return Tables{}, rep, err
	}

	// 1. 规范列名
	t := RenameAll(in)

	// 2. 解析时间
	order, err := ParseTimestamps(t.Order)
	if err != nil {
		return Tables{}, rep, err
	}

	// 3. 日期特征
	if order, err = AddDateFeatures(order); err != nil {
		return Tables{}, rep, err
	}

	// 4. 配送时长插补
	order, imp, err := ImputeDelivery(order, tr.Source)
	if err != nil {
		return Tables{}, rep, err
	}
	rep.ImputedDelivery = imp.Imputed
	rep.BackfilledCustomer = imp.BackfilledCustomer
	rep.BackfilledCarrier = imp.BackfilledCarrier
	rep.DeliveryMean = imp.Mean
	rep.DeliveryStd = imp.Std
	t.Order = order

	// 5. 州 -> 大区
	if t.Customer, err = MapRegion(t.Customer, TableCustomer, tr.Regions); err != nil {
		return Tables{}, rep, err
	}
	if t.Geo, err = MapRegion(t.Geo, TableGeo, tr.Regions); err != nil {
		return Tables{}, rep, err
	}

	// 6. 合并英文类目
	before := t.Product.Nrow()
	if t.Product, err = MergeProductCategory(t.Product, t.ProductCategory); err != nil {
		return Tables{}, rep, err
	}
	rep.DroppedProducts = before - t.Product.Nrow()

	// 7. 商品体积
	if t.OrderItem, err = AddProductVolume(t.OrderItem, t.Product); err != nil {
		return Tables{}, rep, err
	}

	// 8. 客户消费分档
	before = t.Customer.Nrow()
	customer, edges, err := AddCustomerSpending(t.Customer, t.Order, t.OrderPayment)
	if err != nil {
		return Tables{}, rep, err
	}
	t.Customer = customer
	rep.DroppedCustomers = before - customer.Nrow()
	rep.SpendingEdges = edges

	return t, rep, t.Err()
}

// ParseTimestamps 把订单四个时间列统一为 utils.TimeLayout 文本，无法解析的置为 NA
func ParseTimestamps(order dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(order, TableOrder, orderTimeColumns...); err != nil {
		return order, err
	}
	out := order
	for _, name := range orderTimeColumns {
		col := order.Col(name)
		values := make([]string, col.Len())
		valid := make([]bool, col.Len())
		for i := 0; i < col.Len(); i++ {
			if ts, ok := utils.ParseTime(col.Elem(i)); ok {
				values[i] = ts.Format(utils.TimeLayout)
				valid[i] = true
			}
		}
		out = out.Mutate(stringSeries(values, valid, name))
	}
	return out, out.Err
}

// AddDateFeatures 从 purchase_timestamp 派生日历特征，时间为空则特征为空
// purchase_dayofweek 与 purchase_weekday 均为 周一=0 .. 周日=6
func AddDateFeatures(order dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(order, TableOrder, "purchase_timestamp"); err != nil {
		return order, err
	}
	col := order.Col("purchase_timestamp")
	n := col.Len()
	month := make([]string, n)
	year := make([]int, n)
	quarter := make([]int, n)
	day := make([]int, n)
	dow := make([]int, n)
	doy := make([]int, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		ts, ok := utils.ParseTime(col.Elem(i))
		if !ok {
			continue
		}
		valid[i] = true
		month[i] = time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC).Format(utils.DateLayout)
		year[i] = ts.Year()
		quarter[i] = (int(ts.Month())-1)/3 + 1
		day[i] = ts.Day()
		dow[i] = (int(ts.Weekday()) + 6) % 7
		doy[i] = ts.YearDay()
	}
	out := order.
		Mutate(stringSeries(month, valid, "purchase_month")).
		Mutate(intSeries(year, valid, "purchase_year")).
		Mutate(intSeries(quarter, valid, "purchase_quarter")).
		Mutate(intSeries(day, valid, "purchase_day")).
		Mutate(intSeries(dow, valid, "purchase_dayofweek")).
		Mutate(intSeries(doy, valid, "purchase_dayofyear")).
		Mutate(intSeries(dow, valid, "purchase_weekday"))
	return out, out.Err
}

// Imputation 配送时长插补结果
type Imputation struct {
	Imputed            int
	BackfilledCustomer int
	BackfilledCarrier  int
	Mean               float64
	Std                float64
}

// ImputeDelivery 计算 delivery_time(天，向下取整)并插补缺失值
//
// 缺失的 delivery_time 各自从 LogNormal(均值, 样本标准差) 独立抽样；
// 缺失的签收/揽收时间用 下单时间+平均天数 回填。两种估计互相独立，同一行可能不一致。
func ImputeDelivery(order dataframe.DataFrame, src rand.Source) (dataframe.DataFrame, Imputation, error) {
	var imp Imputation
	if err := requireColumns(order, TableOrder, "purchase_timestamp", "delivered_customer_date", "delivered_carrier_date"); err != nil {
		return order, imp, err
	}

	purchase := order.Col("purchase_timestamp")
	customer := order.Col("delivered_customer_date")
	carrier := order.Col("delivered_carrier_date")
	n := purchase.Len()

	purchased := make([]time.Time, n)
	hasPurchase := make([]bool, n)
	delivery := make([]float64, n)
	var known []float64
	for i := 0; i < n; i++ {
		delivery[i] = math.NaN()
		p, ok := utils.ParseTime(purchase.Elem(i))
		if !ok {
			continue
		}
		purchased[i], hasPurchase[i] = p, true
		c, ok := utils.ParseTime(customer.Elem(i))
		if !ok {
			continue
		}
		delivery[i] = math.Floor(c.Sub(p).Hours() / 24)
		known = append(known, delivery[i])
	}
	if len(known) == 0 {
		return order, imp, ErrNoDeliverySample
	}

	mean, std := stat.MeanStdDev(known, nil)
	if math.IsNaN(std) {
		// 只有一个样本
		std = 0
	}
	imp.Mean, imp.Std = mean, std

	dist := distuv.LogNormal{Mu: mean, Sigma: std, Src: src}
	for i := range delivery {
		if math.IsNaN(delivery[i]) {
			delivery[i] = dist.Rand()
			imp.Imputed++
		}
	}

	offset := time.Duration(mean * 24 * float64(time.Hour))
	backfill := func(col series.Series) (series.Series, int) {
		values := make([]string, n)
		valid := make([]bool, n)
		filled := 0
		for i := 0; i < n; i++ {
			if e := col.Elem(i); !e.IsNA() {
				values[i], valid[i] = e.String(), true
				continue
			}
			if hasPurchase[i] {
				values[i], valid[i] = purchased[i].Add(offset).Format(utils.TimeLayout), true
				filled++
			}
		}
		return stringSeries(values, valid, col.Name), filled
	}
	customerFilled, nc := backfill(customer)
	carrierFilled, nr := backfill(carrier)
	imp.BackfilledCustomer, imp.BackfilledCarrier = nc, nr

	out := order.
		Mutate(floatSeries(delivery, "delivery_time")).
		Mutate(customerFilled).
		Mutate(carrierFilled)
	return out, imp, out.Err
}

// MergeProductCategory 商品表内连接英文类目表，去掉本地类目列，英文名改为 category_name
func MergeProductCategory(product, category dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(product, TableProduct, "product_category_name"); err != nil {
		return product, err
	}
	if err := requireColumns(category, TableProductCategory, "product_category_name", "product_category_name_english"); err != nil {
		return product, err
	}
	merged := join(product, category, "product_category_name", "product_category_name", innerJoin)
	merged = dropColumns(merged, "product_category_name")
	merged = RenameColumns(merged, map[string]string{"product_category_name_english": "category_name"})
	return merged, merged.Err
}

// AddProductVolume 订单明细内连接商品表，product_volume = 长*高*宽，任一维度缺失则为 NA
func AddProductVolume(item, product dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(item, TableOrderItem, "product_id"); err != nil {
		return item, err
	}
	if err := requireColumns(product, TableProduct, "product_id", "length", "height", "width"); err != nil {
		return item, err
	}
	merged := join(item, product, "product_id", "product_id", innerJoin)
	length := merged.Col("length").Float()
	height := merged.Col("height").Float()
	width := merged.Col("width").Float()
	volume := make([]float64, len(length))
	for i := range volume {
		// NaN 参与乘法结果仍为 NaN
		volume[i] = length[i] * height[i] * width[i]
	}
	out := merged.Mutate(floatSeries(volume, "product_volume"))
	return out, out.Err
}

// AddCustomerSpending 汇总每个客户的付款总额并按分位数分为三档
// 没有付款记录的客户被丢弃。返回分档边界。
func AddCustomerSpending(customer, order, payment dataframe.DataFrame) (dataframe.DataFrame, []float64, error) {
	if err := requireColumns(customer, TableCustomer, "customer_id"); err != nil {
		return customer, nil, err
	}
	if err := requireColumns(order, TableOrder, "order_id", "customer_id"); err != nil {
		return customer, nil, err
	}
	if err := requireColumns(payment, TableOrderPayment, "order_id", "payment_value"); err != nil {
		return customer, nil, err
	}

	// customer ⋈ order ⋈ payment, 按 customer_id 求和
	paid := join(selectColumns(customer, "customer_id"), selectColumns(order, "customer_id", "order_id"), "customer_id", "customer_id", innerJoin)
	paid = join(paid, selectColumns(payment, "order_id", "payment_value"), "order_id", "order_id", innerJoin)

	totals := make(map[string]decimal.Decimal)
	value := paid.Col("payment_value")
	for _, g := range groupRows(paid, "customer_id") {
		sum := decimal.Zero
		for _, r := range g.rows {
			if e := value.Elem(r); !e.IsNA() {
				sum = sum.Add(decimal.NewFromFloat(e.Float()))
			}
		}
		totals[g.key[0]] = sum
	}

	ids := customer.Col("customer_id")
	var rows []int
	var spend []float64
	for i := 0; i < ids.Len(); i++ {
		e := ids.Elem(i)
		if e.IsNA() {
			continue
		}
		if sum, ok := totals[e.String()]; ok {
			rows = append(rows, i)
			spend = append(spend, sum.InexactFloat64())
		}
	}

	kbd := NewQuantileDiscretizer(SpendingBins)
	if err := kbd.Fit(spend); err != nil {
		return customer, nil, err
	}
	tiers, err := kbd.Transform(spend)
	if err != nil {
		return customer, nil, err
	}

	out := takeRows(customer, rows).
		Mutate(floatSeries(spend, "payment_value")).
		Mutate(intSeries(tiers, nil, "customer_spending"))
	return out, kbd.Edges(), out.Err
}
