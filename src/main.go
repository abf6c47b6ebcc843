package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"OlistInsight/src/config"
	"OlistInsight/src/datasource/file"
	"OlistInsight/src/processor"
	"OlistInsight/src/storage"
	"OlistInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"github.com/robfig/cron"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run 解析命令行并执行，返回进程退出码
//
//	run  执行 加载 -> 转换 -> 持久化 -> 报表，schedule 大于0时定时重复
//	load 输出首页指标，优先读取报表，没有报表时由已持久化的表重新计算
func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("olist-eda", flag.ContinueOnError)
	jsonFolder := fs.String("config-dir", "./config", "配置目录")
	jsonFile := fs.String("config", "config.json", "配置文件名(json/yaml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	command := "run"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}

	cfg, err := config.LoadConfig(*jsonFolder, *jsonFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "加载配置失败:", err)
		return 1
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName, cfg.LogMaxSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, "初始化日志失败:", err)
		return 1
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	setupRotateHandler(ctx, logger)

	switch command {
	case "run":
		p := newPipeline(cfg, logger)
		if cfg.Schedule > 0 {
			err = p.serve(ctx, time.Duration(cfg.Schedule))
		} else {
			err = p.runOnce()
		}
	case "load":
		err = printSummary(cfg, logger, stdout)
	default:
		err = fmt.Errorf("未知命令 %q", command)
	}
	if err != nil {
		logger.Fatal("运行失败", zap.String("command", command), zap.Error(err))
		return 1
	}
	return 0
}

// setupRotateHandler SIGHUP 时轮转日志
func setupRotateHandler(ctx context.Context, logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				if err := logger.Rotate(); err != nil {
					logger.Error("日志轮转失败", zap.Error(err))
				}
			}
		}
	}()
}

type pipeline struct {
	cfg     *config.Config
	logger  *storage.Logger
	cache   *file.SnapshotCache
	metrics *storage.Metrics
	source  func() rand.Source

	running sync.Mutex
}

func newPipeline(cfg *config.Config, logger *storage.Logger) *pipeline {
	return &pipeline{
		cfg:     cfg,
		logger:  logger,
		cache:   file.NewSnapshotCache(cfg.RawPath()),
		metrics: storage.NewMetrics(),
		source:  seedSource(cfg.ImputeSeed),
	}
}

// seedSource 配置了种子时每次运行结果可复现
func seedSource(seed *uint64) func() rand.Source {
	if seed != nil {
		s := *seed
		return func() rand.Source { return rand.NewSource(s) }
	}
	return func() rand.Source { return rand.NewSource(uint64(time.Now().UnixNano())) }
}

// runOnce 执行一次完整流水线，上一轮未结束时跳过
func (p *pipeline) runOnce() error {
	if !p.running.TryLock() {
		p.logger.Warning("上一轮仍在运行，跳过本次")
		return nil
	}
	defer p.running.Unlock()

	log := p.logger.With(zap.String("run_id", uuid.NewString()))
	err := p.execute(log)
	p.metrics.RunFinished(err)
	if werr := p.metrics.WriteTextfile(p.cfg.MetricsPath()); werr != nil {
		log.Error("写入指标失败", zap.Error(werr))
	}
	return err
}

func (p *pipeline) execute(log *storage.Logger) error {
	start := time.Now()

	// 1. 加载
	t := time.Now()
	raw, hit, err := p.cache.Get()
	if err != nil {
		return fmt.Errorf("加载原始数据失败: %w", err)
	}
	p.metrics.ObserveStage("load", time.Since(t))
	log.Info("原始数据已加载", zap.Bool("cache_hit", hit), zap.Any("rows", raw.RowCounts()))

	// 2. 转换
	t = time.Now()
	tables, rep, err := processor.Transform(raw, p.source())
	if err != nil {
		return fmt.Errorf("转换失败: %w", err)
	}
	p.metrics.ObserveStage("transform", time.Since(t))
	p.metrics.SetImputed("delivery_time", rep.ImputedDelivery)
	p.metrics.SetImputed("delivered_customer_date", rep.BackfilledCustomer)
	p.metrics.SetImputed("delivered_carrier_date", rep.BackfilledCarrier)
	log.Info("转换完成",
		zap.Int("imputed_delivery", rep.ImputedDelivery),
		zap.Float64("delivery_mean", rep.DeliveryMean),
		zap.Float64("delivery_std", rep.DeliveryStd),
		zap.Int("dropped_products", rep.DroppedProducts),
		zap.Int("dropped_customers", rep.DroppedCustomers),
		zap.Float64s("spending_edges", rep.SpendingEdges),
	)

	// 3. 持久化
	t = time.Now()
	if err := storage.WriteTables(p.cfg.ProcessedPath(), tables); err != nil {
		return fmt.Errorf("持久化失败: %w", err)
	}
	p.metrics.ObserveStage("persist", time.Since(t))
	p.metrics.SetTableRows(tables.RowCounts())

	// 4. 报表
	t = time.Now()
	sheets, err := processor.NewDataProcessor(tables).ReportSheets(p.cfg.TopN)
	if err != nil {
		return fmt.Errorf("汇总失败: %w", err)
	}
	if err := storage.WriteReport(p.cfg.ReportPath(), sheets); err != nil {
		return fmt.Errorf("写入报表失败: %w", err)
	}
	p.metrics.ObserveStage("report", time.Since(t))

	log.Info("运行完成",
		zap.String("output", p.cfg.ProcessedPath()),
		zap.Int("sheets", len(sheets)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// serve 定时运行并监听原始数据目录，ctx 结束后返回
func (p *pipeline) serve(ctx context.Context, every time.Duration) error {
	if err := p.runOnce(); err != nil {
		p.logger.Error("首次运行失败", zap.Error(err))
	}

	monitor, err := file.NewFileMonitor(p.cfg.RawPath())
	if err != nil {
		return fmt.Errorf("监控目录 %s 失败: %w", p.cfg.RawPath(), err)
	}
	defer monitor.Close()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- monitor.InvalidateOnChange(ctx, p.cache, func(name string) {
			p.logger.Info("原始数据变化，缓存失效", zap.String("file", name))
		})
	}()

	// 设置定时任务
	c := cron.New()
	cronSpec := fmt.Sprintf("@every %s", every)
	err = c.AddFunc(cronSpec, func() {
		if err := p.runOnce(); err != nil {
			p.logger.Error("定时运行失败", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("创建定时任务失败: %w", err)
	}
	c.Start()
	defer c.Stop()

	p.logger.Info("定时运行已启动，按Ctrl+C退出", zap.String("spec", cronSpec))
	select {
	case <-ctx.Done():
		p.logger.Info("收到退出信号")
		return nil
	case err := <-watchErr:
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("目录监控出错: %w", err)
	}
}

// printSummary 输出首页指标
func printSummary(cfg *config.Config, logger *storage.Logger, w io.Writer) error {
	frame, err := summaryFrame(cfg, logger)
	if err != nil {
		return err
	}
	metrics, values := frame.Col("metric").Records(), frame.Col("value").Records()
	for i := range metrics {
		fmt.Fprintf(w, "%-26s %s\n", metrics[i], values[i])
	}
	return nil
}

// summaryFrame 优先读取报表中的 kpi 工作表，报表不存在或不可读时由处理后的表重新计算
func summaryFrame(cfg *config.Config, logger *storage.Logger) (dataframe.DataFrame, error) {
	report := cfg.ReportPath()
	if _, err := os.Stat(report); err == nil {
		frame, err := file.ReadXLSX(report, processor.SummarySheet)
		switch {
		case err != nil:
			logger.Warning("读取报表失败，重新计算指标", zap.String("report", report), zap.Error(err))
		case !utils.HasColumn(frame, "metric") || !utils.HasColumn(frame, "value"):
			logger.Warning("报表指标格式不符，重新计算指标", zap.String("report", report))
		default:
			logger.Info("指标来自报表", zap.String("report", report))
			return frame, nil
		}
	}

	tables, err := file.LoadProcessed(cfg.ProcessedPath())
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取处理后数据失败: %w", err)
	}
	summary, err := processor.NewDataProcessor(tables).CalculateMetrics()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return summary.Frame(), nil
}
