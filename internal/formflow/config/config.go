// Управление конфигурацией приложения из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Валидация обязательных переменных.
//   - Преобразование типов данных из переменных окружения (string, int, bool).
//   - Маскировка секретных значений (passwords) в логах.
package config

import (
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
)

type Config struct {
	SecretKey string `env:"SECRET_KEY"`

	DatabaseDSN string `env:"DATABASE_URL"`

	WebURLRaw string `env:"WEB_URL"`
	WebURL    *url.URL

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioSSL       bool   `env:"MINIO_SSL"`

	LocalStoragePath string `env:"LOCAL_STORAGE_PATH"`

	// MaxUploadSizeMB - верхняя граница размера вложения независимо от правил поля.
	MaxUploadSizeMB int `env:"MAX_UPLOAD_SIZE_MB"`

	// QuotaServiceURLRaw - адрес внешнего сервиса тарификации. Пусто - квоты не ограничены.
	QuotaServiceURLRaw string `env:"QUOTA_SERVICE_URL"`
	QuotaServiceURL    *url.URL

	// EventsWebhookURLRaw - адрес получателя доменных событий. Пусто - события пишутся в лог.
	EventsWebhookURLRaw string `env:"EVENTS_WEBHOOK_URL"`
	EventsWebhookURL    *url.URL

	MetricsEnable bool `env:"METRICS"`
}

// ReadConfig загружает конфигурацию приложения из переменных окружения и выполняет валидацию. Если WEB_URL не задан, приложение завершает работу с ошибкой.
func ReadConfig() *Config {
	config := &Config{}

	envConfig("env", config)

	// Check required envs
	if config.WebURLRaw == "" {
		slog.Error("WEB_URL is required")
		os.Exit(1)
	} else {
		var err error
		config.WebURL, err = url.Parse(config.WebURLRaw)
		if err != nil {
			slog.Error("WEB_URL incorrect", "err", err)
			os.Exit(1)
		}
	}

	if config.MaxUploadSizeMB <= 0 {
		config.MaxUploadSizeMB = 100
	}

	if config.QuotaServiceURLRaw != "" {
		var err error
		config.QuotaServiceURL, err = url.Parse(config.QuotaServiceURLRaw)
		if err != nil {
			slog.Error("QUOTA_SERVICE_URL incorrect", "err", err)
			os.Exit(1)
		}
	}

	if config.EventsWebhookURLRaw != "" {
		var err error
		config.EventsWebhookURL, err = url.Parse(config.EventsWebhookURLRaw)
		if err != nil {
			slog.Error("EVENTS_WEBHOOK_URL incorrect", "err", err)
			os.Exit(1)
		}
	}

	return config
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if !Exist(fEnvTag) {
			continue
		}

		logValue := GetEnv(fEnvTag)
		if logValue == "" {
			continue
		}

		// Secure passwords in log
		if strings.Contains(strings.ToLower(fName), "pass") || strings.Contains(strings.ToLower(fName), "secret") || strings.Contains(strings.ToLower(fName), "token") {
			pass := strings.Split(GetEnv(fEnvTag), "")
			logValue = pass[0]
			for i := 1; i < len(pass)-1; i++ {
				logValue += "*"
			}
			logValue += pass[len(pass)-1]
		}
		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(GetEnv(fEnvTag))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}
