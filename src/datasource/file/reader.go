package file

import (
	"fmt"
	"os"
	"path/filepath"

	"OlistInsight/src/processor"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// RawFiles 表名 -> 原始CSV文件名
var RawFiles = map[string]string{
	processor.TableGeo:             "olist_geolocation_dataset.csv",
	processor.TableOrder:           "olist_orders_dataset.csv",
	processor.TableOrderItem:       "olist_order_items_dataset.csv",
	processor.TableOrderPayment:    "olist_order_payments_dataset.csv",
	processor.TableOrderReview:     "olist_order_reviews_dataset.csv",
	processor.TableProduct:         "olist_products_dataset.csv",
	processor.TableSeller:          "olist_sellers_dataset.csv",
	processor.TableCustomer:        "olist_customers_dataset.csv",
	processor.TableProductCategory: "product_category_name_translation.csv",
}

// ProcessedFile 处理后表的文件名
func ProcessedFile(table string) string {
	return table + ".csv"
}

// RawPaths 按 processor.TableNames 顺序返回原始文件的完整路径
func RawPaths(root string) []string {
	paths := make([]string, 0, len(processor.TableNames))
	for _, name := range processor.TableNames {
		paths = append(paths, filepath.Join(root, RawFiles[name]))
	}
	return paths
}

// LoadRaw 读取九张原始表，任一文件缺失或格式错误则整体失败
func LoadRaw(root string) (processor.Tables, error) {
	return loadTables(root, func(table string) string { return RawFiles[table] })
}

// LoadProcessed 读取 Persister 写出的 <key>.csv
func LoadProcessed(dir string) (processor.Tables, error) {
	return loadTables(dir, ProcessedFile)
}

func loadTables(dir string, fileName func(string) string) (processor.Tables, error) {
	// 1. 先确认全部文件存在再解析
	for _, table := range processor.TableNames {
		path := filepath.Join(dir, fileName(table))
		if _, err := os.Stat(path); err != nil {
			return processor.Tables{}, fmt.Errorf("数据文件 %s 不可用: %w", path, err)
		}
	}

	// 2. 逐个解析
	var tables processor.Tables
	for _, table := range processor.TableNames {
		path := filepath.Join(dir, fileName(table))
		df, err := ReadCSV(path)
		if err != nil {
			return processor.Tables{}, err
		}
		if tables, err = tables.With(table, df); err != nil {
			return processor.Tables{}, err
		}
	}
	return tables, nil
}

// ReadCSV 读取单个CSV，数值列自动推断，标识符和时间列保持字符串
func ReadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("打开文件 %s 失败: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(processor.ColumnTypes()),
		dataframe.NaNValues(processor.NaNValues()),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("解析CSV %s 失败: %w", path, df.Err)
	}
	return df, nil
}

// ReadXLSX 读取报表中的一个工作表，第一行为表头，全部按字符串读取
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.New(), fmt.Errorf("xlsx open file false: %w", err)
	}

	// 2. 获取工作表
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		return dataframe.New(), fmt.Errorf("excel文件中没有工作表 %s", sheetName)
	}

	// 3. 转换为Gota DataFrame
	return convertSheetToDataFrame(sheet), nil
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
// 空单元格视为缺失
func convertSheetToDataFrame(sheet *xlsx.Sheet) dataframe.DataFrame {
	if len(sheet.Rows) == 0 {
		return dataframe.New()
	}

	// 列名在第一行
	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}

	// 准备数据列
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, len(sheet.Rows)-1)
	}

	// 填充数据(从第二行开始), 短行补缺失
	for r, row := range sheet.Rows[1:] {
		for i := range headers {
			value := ""
			if i < len(row.Cells) {
				value = row.Cells[i].Value
			}
			if value == "" {
				value = "NaN"
			}
			columns[i][r] = value
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}
	return dataframe.New(seriesList...)
}
