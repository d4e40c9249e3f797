package app

import (
	"strings"
	"time"

	"github.com/yungbote/glossary-backend/internal/data/db"
	"github.com/yungbote/glossary-backend/internal/modules/glossary/steps"
	"github.com/yungbote/glossary-backend/internal/observability"
	"github.com/yungbote/glossary-backend/internal/platform/envutil"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/platform/openai"
	"github.com/yungbote/glossary-backend/internal/realtime"
	"github.com/yungbote/glossary-backend/internal/realtime/bus"
	"github.com/yungbote/glossary-backend/internal/utils"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string
	CORSOrigins []string

	DB db.Config

	DocumentRoot string
	EventBuffer  int
	Keepalive    time.Duration

	DraftBatchSize   int
	StageConcurrency int
	PromptsPath      string

	Redis  bus.Config
	OpenAI openai.Config
	Otel   observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", observability.DefaultServiceName, log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		DB: db.Config{
			Driver:     utils.GetEnv("DB_DRIVER", db.DriverSQLite, log),
			SQLitePath: utils.GetEnv("SQLITE_PATH", "glossary.db", log),
			Postgres: db.PostgresConfig{
				Host:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
				Port:     utils.GetEnv("POSTGRES_PORT", "5432", log),
				User:     utils.GetEnv("POSTGRES_USER", "postgres", log),
				Password: utils.GetEnv("POSTGRES_PASSWORD", "", log),
				Name:     utils.GetEnv("POSTGRES_NAME", "glossary", log),
			},
		},
		DocumentRoot:     utils.GetEnv("DOCUMENT_ROOT", "./documents", log),
		EventBuffer:      utils.GetEnvAsInt("RUN_EVENT_BUFFER", realtime.DefaultBuffer, log),
		Keepalive:        envutil.Seconds("RUN_KEEPALIVE_SECONDS", realtime.DefaultKeepalive),
		DraftBatchSize:   utils.GetEnvAsInt("DRAFT_BATCH_SIZE", steps.DefaultBatchSize, log),
		StageConcurrency: utils.GetEnvAsInt("STAGE_CONCURRENCY", steps.DefaultConcurrency, log),
		PromptsPath:      envutil.String(steps.PromptsEnv, ""),
		Redis: bus.Config{
			Addr:    envutil.String("REDIS_ADDR", ""),
			Channel: utils.GetEnv("REDIS_CHANNEL", bus.DefaultChannel, log),
		},
		OpenAI: openai.Config{
			APIKey:      utils.GetEnv("OPENAI_API_KEY", "", log),
			BaseURL:     utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", log),
			Model:       utils.GetEnv("OPENAI_MODEL", "gpt-4.1-mini", log),
			Timeout:     envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
			MaxRetries:  utils.GetEnvAsInt("OPENAI_MAX_RETRIES", 3, log),
			Temperature: envutil.FloatPtr("OPENAI_TEMPERATURE"),
		},
	}
	cfg.Otel = observability.OtelConfigFromEnv(cfg.ServiceName, cfg.Environment)
	if raw := envutil.String("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg
}
