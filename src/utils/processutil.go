package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TimeLayout 时间列统一的文本格式
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout 月份等日期列的文本格式
const DateLayout = "2006-01-02"

// 可识别的时间格式，按顺序尝试
var timeLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// ParseTime 解析一个时间元素，NA、空串或无法识别时返回 false
func ParseTime(e series.Element) (time.Time, bool) {
	if e.IsNA() {
		return time.Time{}, false
	}
	return ParseTimeString(e.String())
}

// ParseTimeString 按 timeLayouts 依次尝试解析
func ParseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NaN" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var printer = message.NewPrinter(language.English)

// FormatThousands 千分位格式化整数, 例如 1234567 -> "1,234,567"
func FormatThousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatCurrency 金额截断为整数后加千分位和美元符号, 例如 100.99 -> "$100"
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + FormatThousands(amount.IntPart())
}

var titleCaser = cases.Title(language.English)

// DisplayCity 城市名首字母大写
func DisplayCity(city string) string {
	return titleCaser.String(city)
}

// DisplayCategory 类目名首字母大写并把下划线替换为 " & "
// 例如 "bed_bath_table" -> "Bed & Bath & Table"
func DisplayCategory(category string) string {
	parts := strings.Split(category, "_")
	for i, p := range parts {
		parts[i] = titleCaser.String(p)
	}
	return strings.Join(parts, " & ")
}

// Sheet 一个待写入Excel的工作表
type Sheet struct {
	Name string
	Data dataframe.DataFrame
}

// SaveToExcel 将多个DataFrame写入同一个Excel文件，每个DataFrame一个工作表
func SaveToExcel(sheets []Sheet, filePath string) error {
	if len(sheets) == 0 {
		return fmt.Errorf("没有需要写入的工作表")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			// 新文件默认带 Sheet1，直接改名复用
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("重命名工作表失败: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("创建工作表 %s 失败: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	// 保存文件
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	df := sheet.Data
	if df.Err != nil {
		return fmt.Errorf("工作表 %s 数据错误: %w", sheet.Name, df.Err)
	}

	// 写入列名
	colNames := df.Names()
	for i, name := range colNames {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, name); err != nil {
			return err
		}
	}

	// 写入数据, NA 留空
	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			elem := col.Elem(rowIdx)
			if elem.IsNA() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet.Name, cell, cellValue(elem)); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellValue(e series.Element) interface{} {
	switch e.Type() {
	case series.Int:
		if v, err := e.Int(); err == nil {
			return v
		}
	case series.Float:
		return e.Float()
	case series.Bool:
		if v, err := e.Bool(); err == nil {
			return v
		}
	}
	return e.String()
}
