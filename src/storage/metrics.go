package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 流水线运行指标，使用独立的 registry，运行结束写成 textfile
type Metrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.GaugeVec
	tableRows     *prometheus.GaugeVec
	imputedRows   *prometheus.GaugeVec
	runs          *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eda_stage_duration_seconds",
			Help: "最近一次运行各阶段耗时",
		}, []string{"stage"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eda_table_rows",
			Help: "处理后各表行数",
		}, []string{"table"}),
		imputedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eda_imputed_rows",
			Help: "插补或回填的行数",
		}, []string{"column"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eda_runs_total",
			Help: "流水线运行次数",
		}, []string{"result"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eda_last_success_timestamp_seconds",
			Help: "最近一次成功运行的时间",
		}),
	}
	m.registry.MustRegister(m.stageDuration, m.tableRows, m.imputedRows, m.runs, m.lastSuccess)
	return m
}

// ObserveStage 记录阶段耗时
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// SetTableRows 记录各表行数
func (m *Metrics) SetTableRows(counts map[string]int) {
	for table, n := range counts {
		m.tableRows.WithLabelValues(table).Set(float64(n))
	}
}

func (m *Metrics) SetImputed(column string, n int) {
	m.imputedRows.WithLabelValues(column).Set(float64(n))
}

// RunFinished 记录一次运行结果
func (m *Metrics) RunFinished(err error) {
	if err != nil {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.lastSuccess.SetToCurrentTime()
}

// Registry 供测试或外部导出使用
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile 以 node_exporter textfile 格式写出
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建指标目录失败: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("写入指标文件 %s 失败: %w", path, err)
	}
	return nil
}
