package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// データソースの種類
const (
	DataSourceGraphQL  = "graphql"
	DataSourceDatabase = "database"
	DataSourceGRPC     = "grpc"
)

// データベースドライバー
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	DataSource    DataSourceConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Desk          DeskConfig
	Circulation   CirculationConfig
	InternalAPI   InternalAPIConfig
	JWT           JWTConfig
	Kafka         KafkaConfig
	Log           LogConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	GRPCPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DataSourceConfig 返却画面が参照するデータソースの設定
type DataSourceConfig struct {
	Kind            string // "graphql", "database", "grpc"
	GraphQLEndpoint string
	GRPCTarget      string
	APIKey          string        // 外部データソース呼び出し時のAPIキー
	Timeout         time.Duration // 0はタイムアウトなし
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Driver          string // "mysql", "sqlite"
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// CacheConfig クエリキャッシュ設定
type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DeskConfig 返却画面の表示設定
type DeskConfig struct {
	CurrencyLabel     string
	DateLayout        string
	TimeZone          string
	HomeRoute         string
	ShowFailureResult bool
	ViewTTL           time.Duration
	ViewSweepInterval time.Duration
}

// CirculationConfig 貸出管理サービス（DB側）の設定
type CirculationConfig struct {
	Enabled bool
}

// InternalAPIConfig 内部API（REST/gRPC）のAPIキー認証設定
type InternalAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// KafkaConfig Kafka設定
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	ReturnsTopic string
	WriteTimeout time.Duration
}

// LogConfig ログ出力設定
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text"（tint）, "json"
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "prometheus", "stdout"
	SampleRatio     float64
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	serverPort := getEnvAsInt("SERVER_PORT", 8080)

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:         serverPort,
			GRPCPort:     getEnvAsInt("GRPC_PORT", serverPort+1),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		DataSource: DataSourceConfig{
			Kind:            strings.ToLower(getEnv("DATA_SOURCE", DataSourceDatabase)),
			GraphQLEndpoint: getEnv("GRAPHQL_ENDPOINT", "http://localhost:8000/graphql/"),
			GRPCTarget:      getEnv("GRPC_TARGET", fmt.Sprintf("localhost:%d", serverPort+1)),
			APIKey:          getEnv("DATA_SOURCE_API_KEY", ""),
			Timeout:         getEnvAsDuration("DATA_SOURCE_TIMEOUT", 0),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "library_db"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "library.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Cache: CacheConfig{
			Enabled:         getEnvAsBool("QUERY_CACHE_ENABLED", true),
			TTL:             getEnvAsDuration("QUERY_CACHE_TTL", 5*time.Minute),
			CleanupInterval: getEnvAsDuration("QUERY_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Desk: DeskConfig{
			CurrencyLabel:     getEnv("DESK_CURRENCY", "KES"),
			DateLayout:        getEnv("DESK_DATE_LAYOUT", "1/2/2006"),
			TimeZone:          getEnv("DESK_TIMEZONE", "Local"),
			HomeRoute:         getEnv("DESK_HOME_ROUTE", "/"),
			ShowFailureResult: getEnvAsBool("DESK_RETURN_FAILURE_MODAL", false),
			ViewTTL:           getEnvAsDuration("DESK_VIEW_TTL", 30*time.Minute),
			ViewSweepInterval: getEnvAsDuration("DESK_VIEW_SWEEP_INTERVAL", time.Minute),
		},
		Circulation: CirculationConfig{
			Enabled: getEnvAsBool("CIRCULATION_ENABLED", true),
		},
		InternalAPI: InternalAPIConfig{
			Enabled:    getEnvAsBool("INTERNAL_API_ENABLED", true),
			APIKey:     getEnv("INTERNAL_API_KEY", ""),
			AllowedIPs: getEnvAsSlice("INTERNAL_API_ALLOWED_IPS", nil),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "library-desk"),
		},
		Kafka: KafkaConfig{
			Enabled:      getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:      getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ReturnsTopic: getEnv("KAFKA_RETURNS_TOPIC", "library.book-returned"),
			WriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat(env))),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "library-desk"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
			SampleRatio:     getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	switch c.DataSource.Kind {
	case DataSourceGraphQL:
		if c.DataSource.GraphQLEndpoint == "" {
			return fmt.Errorf("GRAPHQL_ENDPOINT is required when DATA_SOURCE=graphql")
		}
	case DataSourceDatabase:
		if !c.Circulation.Enabled {
			return fmt.Errorf("CIRCULATION_ENABLED must be true when DATA_SOURCE=database")
		}
	case DataSourceGRPC:
		if c.DataSource.GRPCTarget == "" {
			return fmt.Errorf("GRPC_TARGET is required when DATA_SOURCE=grpc")
		}
	default:
		return fmt.Errorf("unsupported DATA_SOURCE: %s", c.DataSource.Kind)
	}

	if c.Circulation.Enabled {
		switch c.Database.Driver {
		case DriverMySQL:
			if c.Database.Host == "" {
				return fmt.Errorf("DB_HOST is required")
			}
			if c.Database.Database == "" {
				return fmt.Errorf("DB_NAME is required")
			}
		case DriverSQLite:
			if c.Database.SQLitePath == "" {
				return fmt.Errorf("DB_SQLITE_PATH is required")
			}
		default:
			return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
		}
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := c.Desk.Location(); err != nil {
		return fmt.Errorf("invalid DESK_TIMEZONE: %w", err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if c.OpenTelemetry.SampleRatio < 0 || c.OpenTelemetry.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
	}
	return nil
}

// IsDevelopment 開発環境かどうか
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func defaultLogFormat(env string) string {
	if env == "development" {
		return "text"
	}
	return "json"
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", c.SQLitePath)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Location 日付表示に使うタイムゾーンを返す
func (c *DeskConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を小数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice カンマ区切りの環境変数をスライスとして取得
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
