// Основной пакет приложения FormFlow. Отвечает за запуск приложения, инициализацию базы данных, миграцию моделей и запуск основного сервера.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/aisa-it/formflow/internal/formflow"
	"github.com/aisa-it/formflow/internal/formflow/config"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/gormlogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

var models = []any{
	&dao.FileAsset{},
	&dao.Form{},
	&dao.FormField{},
	&dao.FormFieldOption{},
	&dao.ConditionalLogicRule{},
	&dao.Submission{},
	&dao.SubmissionValue{},
	&dao.SubmissionAttachment{},
	&dao.ApprovalWorkflow{},
	&dao.ApprovalStep{},
	&dao.ApprovalProcess{},
	&dao.ApprovalAction{},
}

func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()
	dao.Config = cfg

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("FormFlow start.")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: false, // disables implicit prepared statement usage
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := db.AutoMigrate(models...); err != nil {
			slog.Error("Fail migrate models", "err", err)
			os.Exit(1)
		}
	}

	formflow.Server(db, cfg, version)
}

func PrintBanner() {
	banner := `
 ______                   ______ _
|  ____|                 |  ____| |
| |__ ___  _ __ _ __ ___ | |__  | | _____      __
|  __/ _ \| '__| '_ ' _ \|  __| | |/ _ \ \ /\ / /
| | | (_) | |  | | | | | | |    | | (_) \ V  V /
|_|  \___/|_|  |_| |_| |_|_|    |_|\___/ \_/\_/ %s
Dynamic forms with conditional logic and approval workflows
%s
----------------------------------------------------
`
	fmt.Printf(banner, version, fmt.Sprintf("go %s", runtime.Version()))
}
