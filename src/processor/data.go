// data.go
package processor

import (
	"time"

	"OlistInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// SummarySheet 报表中首页指标所在的工作表
const SummarySheet = "kpi"

// Summary 首页指标
type Summary struct {
	TotalRevenue           string
	TotalOrders            string
	TotalCustomers         string
	TotalProducts          string
	HighestSellingCity     string
	HighestSellingCategory string
	LastUpdated            time.Time
}

type DataProcessor struct {
	tables Tables
}

func NewDataProcessor(t Tables) *DataProcessor {
	return &DataProcessor{tables: t}
}

// CalculateMetrics 计算业务指标
func (p *DataProcessor) CalculateMetrics() (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.TotalRevenue, err = TotalRevenue(p.tables); err != nil {
		return s, err
	}
	if s.TotalOrders, err = TotalOrders(p.tables); err != nil {
		return s, err
	}
	if s.TotalCustomers, err = TotalCustomers(p.tables); err != nil {
		return s, err
	}
	if s.TotalProducts, err = TotalProducts(p.tables); err != nil {
		return s, err
	}
	city, err := HighestSellingCity(p.tables)
	if err != nil {
		return s, err
	}
	s.HighestSellingCity = utils.DisplayCity(city)
	category, err := HighestSellingCategory(p.tables)
	if err != nil {
		return s, err
	}
	s.HighestSellingCategory = utils.DisplayCategory(category)
	s.LastUpdated = time.Now()
	return s, nil
}

// Frame 指标转为两列表 metric/value，用于报表
func (s Summary) Frame() dataframe.DataFrame {
	metrics := []string{
		"total_revenue",
		"total_orders",
		"total_customers",
		"total_products",
		"highest_selling_city",
		"highest_selling_category",
		"last_updated",
	}
	values := []string{
		s.TotalRevenue,
		s.TotalOrders,
		s.TotalCustomers,
		s.TotalProducts,
		s.HighestSellingCity,
		s.HighestSellingCategory,
		s.LastUpdated.Format(utils.TimeLayout),
	}
	return dataframe.New(
		series.New(metrics, series.String, "metric"),
		series.New(values, series.String, "value"),
	)
}

// ReportSheets 汇总报表的各个工作表
func (p *DataProcessor) ReportSheets(topN int) ([]utils.Sheet, error) {
	summary, err := p.CalculateMetrics()
	if err != nil {
		return nil, err
	}
	sheets := []utils.Sheet{{Name: SummarySheet, Data: summary.Frame()}}

	sales, err := SalesByRegionCategory(p.tables)
	if err != nil {
		return nil, err
	}
	arpu, err := CalculateARPU(sales)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets, utils.Sheet{Name: "sales_by_region", Data: arpu})

	for _, q := range Quadrants {
		selected, err := SelectQuadrant(arpu, q, topN)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, utils.Sheet{Name: q.String(), Data: selected})
	}

	top, err := TopCategories(p.tables, DefaultTopN)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets, utils.Sheet{Name: "top_categories", Data: top})

	carrier, customer, err := DeliveryNulls(p.tables.Order)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets,
		utils.Sheet{Name: "carrier_nulls", Data: carrier},
		utils.Sheet{Name: "customer_nulls", Data: customer},
	)

	overTime, err := SalesOverTime(p.tables)
	if err != nil {
		return nil, err
	}
	payments, err := PaymentTypeShare(p.tables)
	if err != nil {
		return nil, err
	}
	reviews, err := DeliveryByReviewScore(p.tables)
	if err != nil {
		return nil, err
	}
	missing, err := Missingness(p.tables.Order)
	if err != nil {
		return nil, err
	}
	corr, err := OrderCorrelation(p.tables)
	if err != nil {
		return nil, err
	}
	sheets = append(sheets,
		utils.Sheet{Name: "sales_over_time", Data: overTime},
		utils.Sheet{Name: "payment_types", Data: payments},
		utils.Sheet{Name: "delivery_by_review", Data: reviews},
		utils.Sheet{Name: "order_missingness", Data: missing},
		utils.Sheet{Name: "order_correlation", Data: corr},
	)
	return sheets, nil
}
