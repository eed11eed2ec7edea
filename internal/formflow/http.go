package formflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/business"
	"github.com/aisa-it/formflow/internal/formflow/config"
	"github.com/aisa-it/formflow/internal/formflow/cronmanager"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	filestorage "github.com/aisa-it/formflow/internal/formflow/file-storage"
	"github.com/aisa-it/formflow/internal/formflow/maintenance"
	"github.com/aisa-it/formflow/internal/formflow/notifications"
	"github.com/aisa-it/formflow/pkg/limiter"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Services struct {
	db       *gorm.DB
	storage  filestorage.FileStorage
	business *business.Business
}

var cfg *config.Config
var appVersion string

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "FormFlow")
		return next(c)
	}
}

func Server(db *gorm.DB, c *config.Config, version string) {
	cfg = c
	appVersion = version

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	var storage filestorage.FileStorage
	var err error
	if cfg.MinioEndpoint != "" {
		storage, err = filestorage.NewMinioStorage(cfg)
	} else {
		storage, err = filestorage.NewLocalStorage(cfg.LocalStoragePath)
	}
	if err != nil {
		slog.Error("Fail init file storage", "err", err)
		os.Exit(1)
	}

	dao.Config = cfg
	dao.FileStorage = storage
	limiter.Init(cfg)

	var notifier notifications.Notifier = notifications.SlogNotifier{}
	if cfg.EventsWebhookURL != nil {
		notifier = notifications.NewWebhookNotifier(cfg.EventsWebhookURL)
	}

	bl := business.NewBL(db, storage, notifier)

	s := &Services{
		db:       db,
		storage:  storage,
		business: bl,
	}

	jobRegistry := cronmanager.JobRegistry{
		"process_expire": cronmanager.Job{
			Func: func() {
				expired, err := bl.ExpireOverdue(time.Now())
				if err != nil {
					slog.Error("Expire overdue processes", "err", err)
					return
				}
				if expired > 0 {
					slog.Info("Expired overdue processes", "count", expired)
				}
			},
			Schedule: "*/10 * * * *", // every 10 minutes
		},
		"assets_clean": cronmanager.Job{
			Func:     maintenance.NewAssetCleaner(db, storage).CleanAssets,
			Schedule: "0 1 * * *", // daily at 01:00
		},
	}

	cronManager := cronmanager.NewCronManager(jobRegistry)
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}
	cronManager.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		cronManager.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.Shutdown(shutdownCtx)
		os.Exit(0)
	}()

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: fmt.Sprintf("%dM", cfg.MaxUploadSizeMB),
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
	}))
	e.Use(echoprometheus.NewMiddleware("formflow"))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")
	authGroup := apiGroup.Group("auth/")

	s.AddFormServices(authGroup)
	s.AddWorkflowServices(authGroup)
	s.AddAnswerServices(apiGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": appVersion,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Prometheus metrics
	if cfg.MetricsEnable {
		go func() {
			bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "formflow",
				Name:      "boot_time",
				Help:      "Server startup time",
			})
			bootTimeGauge.Set(float64(time.Now().UnixMilli()))

			if err := prometheus.Register(bootTimeGauge); err != nil {
				slog.Error("Register boot time gauge", "err", err)
				os.Exit(1)
			}

			metrics := echo.New()
			metrics.HideBanner = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			if err := metrics.Start(":2112"); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server fail", "err", err)
			}
		}()
	}

	if err := e.Start(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server fail", "err", err)
	}
}
