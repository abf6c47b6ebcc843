package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"OlistInsight/src/datasource/file"
	"OlistInsight/src/processor"
	"OlistInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
)

// WriteTables 将九张处理后的表写为 dir/<key>.csv，已有文件整体覆盖
// 不写行索引，缺失值写为 NaN
func WriteTables(dir string, t processor.Tables) error {
	if err := t.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录 %s 失败: %w", dir, err)
	}
	return t.Each(func(name string, df dataframe.DataFrame) error {
		return WriteCSV(filepath.Join(dir, file.ProcessedFile(name)), df)
	})
}

// WriteCSV 写单个表
func WriteCSV(path string, df dataframe.DataFrame) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开输出文件 %s 失败: %w", path, err)
	}

	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return f.Close()
}

// WriteReport 汇总结果写入一个xlsx，每个结果一个工作表
func WriteReport(path string, sheets []utils.Sheet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建报表目录失败: %w", err)
	}
	return utils.SaveToExcel(sheets, path)
}
