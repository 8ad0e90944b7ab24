package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gnoobs75/vacuum/internal/market/application"
	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/internal/market/infrastructure/persistence/memory"
	"github.com/gnoobs75/vacuum/internal/market/infrastructure/persistence/mysql"
	"github.com/gnoobs75/vacuum/internal/market/infrastructure/publisher"
	markethttp "github.com/gnoobs75/vacuum/internal/market/interfaces/http"
	"github.com/gnoobs75/vacuum/pkg/config"
	"github.com/gnoobs75/vacuum/pkg/logger"
	"github.com/gnoobs75/vacuum/pkg/metrics"
	"github.com/gnoobs75/vacuum/pkg/mq"
	"github.com/gnoobs75/vacuum/pkg/scheduler"
)

func main() {
	configPath := flag.String("config", "configs/market/config.toml", "配置文件路径")
	seed := flag.Uint64("seed", 0, "随机种子，0 表示随机")
	flag.Parse()

	if err := run(*configPath, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "market engine exited: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, seed uint64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting market engine",
		"service", cfg.ServiceName, "version", cfg.Version, "environment", cfg.Environment)

	m := metrics.New(cfg.ServiceName)

	// 存储：启用持久化走 MySQL，否则进程内存储
	var store domain.Store
	if cfg.Database.Enabled {
		mysqlStore, err := mysql.NewStore(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("init mysql store: %w", err)
		}
		store = mysqlStore
		logger.Info(ctx, "mysql persistence enabled")
	} else {
		store = memory.NewStore()
	}

	if seed == 0 {
		seed = rand.Uint64()
	}
	logger.Info(ctx, "rng seeded", "seed", seed)

	svc := application.NewMarketService(toDomainConfig(cfg.Market), domain.NewRand(seed), m, store, time.Now)

	// 行情广播：配置了 broker 才启用
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			return fmt.Errorf("init kafka producer: %w", err)
		}
		defer producer.Close()
		svc.RegisterListener(publisher.NewKafkaPublisher(producer))
		logger.Info(ctx, "kafka market feed enabled", "brokers", cfg.Kafka.Brokers)
	}

	svc.Start()
	defer svc.Stop()

	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize market: %w", err)
	}

	// 后台任务调度
	sched := scheduler.New(scheduler.Config{
		MaxConcurrent:  cfg.Scheduler.MaxConcurrent,
		MaxRetries:     cfg.Scheduler.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.Scheduler.RetryBaseDelayMs) * time.Millisecond,
		OnRetry: func(taskID, name string, attempt int) {
			m.TaskRetriesTotal.Inc()
		},
	})
	sched.OnTaskDone(func(taskID, name string, status scheduler.Status, result scheduler.Result) {
		switch status {
		case scheduler.StatusCompleted:
			m.TasksCompletedTotal.Inc()
		case scheduler.StatusFailed:
			m.TasksFailedTotal.Inc()
		}
	})
	sched.Start()
	defer sched.Stop()

	go runTickers(ctx, cfg.Market, svc, sched)

	// Prometheus 指标端口
	if cfg.Metrics.Enabled {
		go func() {
			if err := m.Serve(cfg.Metrics.Port, cfg.Metrics.Path); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "metrics server exited", "error", err)
			}
		}()
	}

	// HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	markethttp.NewMarketHandler(svc, m).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		logger.Info(ctx, "http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http server exited", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "http shutdown", "error", err)
	}
	// 停机前保留最终快照
	if err := svc.SaveSnapshot(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "final snapshot failed", "error", err)
	}
	return nil
}

// runTickers 按配置节奏向调度器投递周期任务
func runTickers(ctx context.Context, market config.MarketConfig, svc *application.MarketService, sched *scheduler.Scheduler) {
	tradeTicker := time.NewTicker(secs(market.TradeIntervalSeconds))
	priceTicker := time.NewTicker(secs(market.PriceUpdateIntervalSeconds))
	cleanupTicker := time.NewTicker(secs(market.CleanupIntervalSeconds))
	snapshotTicker := time.NewTicker(15 * time.Minute)
	defer tradeTicker.Stop()
	defer priceTicker.Stop()
	defer cleanupTicker.Stop()
	defer snapshotTicker.Stop()

	submit := func(task scheduler.Task) {
		if _, err := sched.Submit(task); err != nil {
			logger.Warn(ctx, "task submit failed", "task", task.Name(), "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tradeTicker.C:
			submit(&application.AITradingTask{Service: svc})
		case <-priceTicker.C:
			submit(&application.PriceDynamicsTask{Service: svc})
		case <-cleanupTicker.C:
			submit(&application.OrderCleanupTask{Service: svc})
		case <-snapshotTicker.C:
			submit(&application.SnapshotTask{Service: svc})
		}
	}
}

func secs(s float64) time.Duration {
	if s <= 0 {
		s = 60
	}
	return time.Duration(s * float64(time.Second))
}

// toDomainConfig 把配置文件的市场参数映射为领域配置
func toDomainConfig(c config.MarketConfig) domain.MarketConfig {
	return domain.MarketConfig{
		PriceUpdateIntervalSeconds: c.PriceUpdateIntervalSeconds,
		SupplyDemandImpact:         c.SupplyDemandImpact,
		PriceVolatility:            c.PriceVolatility,
		PriceFloorMultiplier:       c.PriceFloorMultiplier,
		PriceCeilingMultiplier:     c.PriceCeilingMultiplier,

		TraderCount:            c.TraderCount,
		TradeIntervalSeconds:   c.TradeIntervalSeconds,
		TraderMinQuantity:      c.TraderMinQuantity,
		TraderMaxQuantity:      c.TraderMaxQuantity,
		TraderSpreadFactor:     c.TraderSpreadFactor,
		OrderExpirationDays:    c.OrderExpirationDays,
		CleanupIntervalSeconds: c.CleanupIntervalSeconds,

		MarketEventChance: c.MarketEventChance,
		MinEventDuration:  c.MinEventDuration,
		MaxEventDuration:  c.MaxEventDuration,
		MinPriceModifier:  c.MinPriceModifier,
		MaxPriceModifier:  c.MaxPriceModifier,
	}
}
