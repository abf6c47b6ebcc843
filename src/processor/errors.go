package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn 表缺少转换或聚合所需的列
	ErrMissingColumn = errors.New("缺少必需列")
	// ErrNoDeliverySample 没有任何一行同时有下单时间和签收时间，无法估计配送时长分布
	ErrNoDeliverySample = errors.New("没有可用的配送时长样本")
	// ErrInvalidYear 年份不在数据覆盖范围内
	ErrInvalidYear = errors.New("年份不在有效范围内")
	// ErrEmptySample 分箱器没有可拟合的样本
	ErrEmptySample = errors.New("样本为空")
)

func missingColumn(table, column string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingColumn, table, column)
}
