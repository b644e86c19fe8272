package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/printshop/internal/messaging/kafka"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	CartStoreMemory    = "memory"
	CartStorePostgres  = "postgres"
	CartStoreFirestore = "firestore"

	envPrefix = "PRINTSHOP_"
)

// Config описывает настройки запуска сервиса. Все поля сравнимы, конфиг копируется по значению.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// CartStore пустой: корзины живут там же, где заказы.
	CartStore                string
	CartTTL                  time.Duration
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// KafkaBrokers: список через запятую; пустой отключает публикацию outbox.
	KafkaBrokers  string
	KafkaClientID string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxPending   int

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	CatalogPath string
	AdminToken  string
	// CORSOrigins: список через запятую; пустой разрешает любой origin.
	CORSOrigins string

	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string
	InvoiceBaseURL   string

	StageTimeout        time.Duration
	RetryMaxAttempts    int
	RetryInitialDelay   time.Duration
	RetryMaxDelay       time.Duration
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		GRPCAddr:                    ":50051",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		CartTTL:                     30 * 24 * time.Hour,
		KafkaClientID:               "printshop",
		KafkaTopic:                  kafka.TopicOrderEvents,
		KafkaDLQTopic:               kafka.TopicDeadLetter,
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           10,
		OutboxRetryDelay:            500 * time.Millisecond,
		OutboxMaxPending:            1000,
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Minute,
		IdempotencyCleanupBatchSize: 500,
		InvoiceBaseURL:              "https://invoices.printshop.local",
		SendGridFromName:            "Printshop",
		StageTimeout:                15 * time.Second,
		RetryMaxAttempts:            3,
		RetryInitialDelay:           100 * time.Millisecond,
		RetryMaxDelay:               2 * time.Second,
		BreakerMaxFailures:          5,
		BreakerResetTimeout:         30 * time.Second,
		LogLevel:                    "info",
		LogFormat:                   "text",
	}
}

// ConfigFromEnv накладывает переменные PRINTSHOP_* поверх DefaultConfig.
// getenv передаётся явно, чтобы тесты не трогали окружение процесса.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	r := envReader{getenv: getenv}

	r.str("HTTP_ADDR", &cfg.HTTPAddr)
	r.str("GRPC_ADDR", &cfg.GRPCAddr)
	r.str("METRICS_ADDR", &cfg.MetricsAddr)

	r.str("STORAGE_DRIVER", &cfg.StorageDriver)
	r.str("POSTGRES_DSN", &cfg.PostgresDSN)
	r.boolean("POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)

	r.str("CART_STORE", &cfg.CartStore)
	r.duration("CART_TTL", &cfg.CartTTL)
	r.str("FIRESTORE_PROJECT_ID", &cfg.FirestoreProjectID)
	r.str("FIRESTORE_CREDENTIALS_FILE", &cfg.FirestoreCredentialsFile)

	r.str("KAFKA_BROKERS", &cfg.KafkaBrokers)
	r.str("KAFKA_CLIENT_ID", &cfg.KafkaClientID)
	r.str("KAFKA_TOPIC", &cfg.KafkaTopic)
	r.str("KAFKA_DLQ_TOPIC", &cfg.KafkaDLQTopic)

	r.duration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	r.integer("OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	r.integer("OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	r.duration("OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	r.integer("OUTBOX_MAX_PENDING", &cfg.OutboxMaxPending)

	r.duration("IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
	r.duration("IDEMPOTENCY_CLEANUP_INTERVAL", &cfg.IdempotencyCleanupInterval)
	r.integer("IDEMPOTENCY_CLEANUP_BATCH_SIZE", &cfg.IdempotencyCleanupBatchSize)

	r.str("CATALOG_PATH", &cfg.CatalogPath)
	r.str("ADMIN_TOKEN", &cfg.AdminToken)
	r.str("CORS_ORIGINS", &cfg.CORSOrigins)

	r.str("SENDGRID_API_KEY", &cfg.SendGridAPIKey)
	r.str("SENDGRID_FROM", &cfg.SendGridFrom)
	r.str("SENDGRID_FROM_NAME", &cfg.SendGridFromName)
	r.str("INVOICE_BASE_URL", &cfg.InvoiceBaseURL)

	r.duration("STAGE_TIMEOUT", &cfg.StageTimeout)
	r.integer("RETRY_MAX_ATTEMPTS", &cfg.RetryMaxAttempts)
	r.duration("RETRY_INITIAL_DELAY", &cfg.RetryInitialDelay)
	r.duration("RETRY_MAX_DELAY", &cfg.RetryMaxDelay)
	r.integer("BREAKER_MAX_FAILURES", &cfg.BreakerMaxFailures)
	r.duration("BREAKER_RESET_TIMEOUT", &cfg.BreakerResetTimeout)

	r.str("LOG_LEVEL", &cfg.LogLevel)
	r.str("LOG_FORMAT", &cfg.LogFormat)

	if r.err != nil {
		return Config{}, r.err
	}
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	cfg.CartStore = strings.ToLower(cfg.CartStore)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек до старта зависимостей.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%sPOSTGRES_DSN is required for postgres storage", envPrefix)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}

	switch c.cartStore() {
	case CartStoreMemory:
	case CartStorePostgres:
		if c.StorageDriver != StorageDriverPostgres && strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%sPOSTGRES_DSN is required for postgres cart store", envPrefix)
		}
	case CartStoreFirestore:
		if strings.TrimSpace(c.FirestoreProjectID) == "" {
			return fmt.Errorf("%sFIRESTORE_PROJECT_ID is required for firestore cart store", envPrefix)
		}
	default:
		return fmt.Errorf("unsupported cart store %q", c.CartStore)
	}

	if c.SendGridAPIKey != "" && c.SendGridFrom == "" {
		return fmt.Errorf("%sSENDGRID_FROM is required when SendGrid is enabled", envPrefix)
	}
	return nil
}

// cartStore разрешает пустое значение в драйвер основного хранилища.
func (c Config) cartStore() string {
	if c.CartStore != "" {
		return c.CartStore
	}
	if c.StorageDriver == StorageDriverPostgres {
		return CartStorePostgres
	}
	return CartStoreMemory
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type envReader struct {
	getenv func(string) string
	err    error
}

func (r *envReader) lookup(name string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v := strings.TrimSpace(r.getenv(envPrefix + name))
	return v, v != ""
}

func (r *envReader) str(name string, dst *string) {
	if v, ok := r.lookup(name); ok {
		*dst = v
	}
}

func (r *envReader) integer(name string, dst *int) {
	v, ok := r.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = fmt.Errorf("%s%s: %w", envPrefix, name, err)
		return
	}
	*dst = n
}

func (r *envReader) boolean(name string, dst *bool) {
	v, ok := r.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = fmt.Errorf("%s%s: %w", envPrefix, name, err)
		return
	}
	*dst = b
}

func (r *envReader) duration(name string, dst *time.Duration) {
	v, ok := r.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = fmt.Errorf("%s%s: %w", envPrefix, name, err)
		return
	}
	*dst = d
}
