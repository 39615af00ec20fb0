// ZhiBan 值班排班引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhiban/zhiban/internal/config"
	"github.com/zhiban/zhiban/internal/database"
	"github.com/zhiban/zhiban/internal/handler"
	"github.com/zhiban/zhiban/internal/hospital"
	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/middleware"
	"github.com/zhiban/zhiban/internal/notify"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/reservation"
	"github.com/zhiban/zhiban/pkg/swap"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env 文件可选，不存在时静默跳过
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})
	log := logger.Get()

	fmt.Printf("ZhiBan 值班排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// ========================================
	// 医院注册表
	// ========================================

	registry := hospital.NewRegistry()
	defaultHospital := hospital.CreateDefault()
	defaultHospital.Settings.MaxWeekendShifts = cfg.Roster.MaxWeekendShifts
	defaultHospital.Settings.MaxShiftsPerMonth = cfg.Roster.MaxShiftsPerMonth
	if cfg.App.Hospital != "" {
		defaultHospital.Code = cfg.App.Hospital
	}
	if err := registry.Register(defaultHospital); err != nil {
		log.Fatal().Err(err).Msg("默认医院注册失败")
	}

	normalizer := defaultHospital.Normalizer()
	configTable := defaultHospital.ConfigTable()

	// ========================================
	// 事件发布（Redis 可选）
	// ========================================

	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.Redis.Enabled {
		redisPub, err := notify.NewRedisPublisher(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis 连接失败，事件发布降级为空实现")
		} else {
			publisher = redisPub
			defer redisPub.Close()
			log.Info().Str("addr", cfg.Redis.Addr()).Msg("Redis 事件发布已启用")
		}
	}
	notifier := notify.NewEventNotifier(publisher)

	// ========================================
	// 数据库与存储端点（可选）
	// ========================================

	mux := http.NewServeMux()

	var db *database.DB
	db, err = database.New(&cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("数据库不可用，预约与换班端点未启用")
	} else {
		defer db.Close()

		staffRepo := repository.NewStaffRepository(db)
		reservationRepo := repository.NewReservationRepository(db)
		swapRepo := repository.NewSwapRepository(db)

		reservationMgr := reservation.NewManager(
			reservationRepo,
			staffRepo,
			normalizer,
			notifier,
			&reservation.Config{
				MaxActive:   cfg.Reservation.MaxActive,
				HorizonDays: cfg.Reservation.HorizonDays,
			},
		)
		swapSvc := swap.NewService(swapRepo, notifier)

		reservationHandler := handler.NewReservationHandler(reservationMgr)
		swapHandler := handler.NewSwapHandler(swapSvc)

		mux.HandleFunc("/api/v1/reservations", reservationHandler.Reserve)
		mux.HandleFunc("/api/v1/reservations/cancel", reservationHandler.Cancel)
		mux.HandleFunc("/api/v1/swaps", swapHandler.Create)
		mux.HandleFunc("/api/v1/swaps/decide", swapHandler.Decide)
		mux.HandleFunc("/api/v1/swaps/cancel", swapHandler.Cancel)
	}

	// ========================================
	// 纯引擎端点（无需数据库）
	// ========================================

	rosterHandler := handler.NewRosterHandler(normalizer, configTable)
	statsHandler := handler.NewStatsHandler(nil)

	mux.HandleFunc("/api/v1/roster/generate", rosterHandler.Generate)
	mux.HandleFunc("/api/v1/roster/generate-month", rosterHandler.GenerateMonth)
	mux.HandleFunc("/api/v1/roster/validate", rosterHandler.Validate)
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded","service":"zhiban","database":"down"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"zhiban"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "ZhiBan 值班排班引擎 API v1",
			"endpoints": {
				"roster": {
					"generate": "POST /api/v1/roster/generate",
					"generate_month": "POST /api/v1/roster/generate-month",
					"validate": "POST /api/v1/roster/validate"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness"
				},
				"reservations": {
					"reserve": "POST /api/v1/reservations",
					"cancel": "POST /api/v1/reservations/cancel"
				},
				"swaps": {
					"create": "POST /api/v1/swaps",
					"decide": "POST /api/v1/swaps/decide",
					"cancel": "POST /api/v1/swaps/cancel"
				}
			}
		}`))
	})

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 执行顺序：recovery -> requestID -> 安全头 -> cors -> 医院解析 -> 限流 -> 日志
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimit, time.Minute)
	root := middleware.Chain(mux,
		middleware.RecoveryMiddleware,
		middleware.RequestIDMiddleware,
		middleware.SecurityHeadersMiddleware,
		middleware.CORSMiddleware(cfg.API.CORS),
		middleware.HospitalMiddleware(registry, defaultHospital.Code),
		middleware.RateLimitMiddleware(rateLimiter),
		middleware.LoggingMiddleware,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		log.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("hospital", defaultHospital.Code).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	log.Info().Msg("服务器已关闭")
}
