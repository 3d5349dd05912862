package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"snaps_engagement/internal/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Auth     AuthConfig     `mapstructure:"auth"`
	FCM      FCMConfig      `mapstructure:"fcm"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      logger.Config  `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite3
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	FilePath        string `mapstructure:"file_path"` // sqlite3 only
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// DSN builds the driver-specific connection string.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.FilePath)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// Enabled reports whether the event stream is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

type WorkerConfig struct {
	Count        int           `mapstructure:"count"`
	BatchSize    int64         `mapstructure:"batch_size"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	AdminToken string `mapstructure:"admin_token"` // empty disables the admin routes
}

type FCMConfig struct {
	ProjectID   string `mapstructure:"project_id"`
	ClientEmail string `mapstructure:"client_email"`
	PrivateKey  string `mapstructure:"private_key"`
}

// Enabled reports whether push credentials are present.
func (c FCMConfig) Enabled() bool {
	return c.ProjectID != "" && c.ClientEmail != "" && c.PrivateKey != ""
}

// ReportConfig points at the S3-compatible bucket that archives reconciliation reports.
type ReportConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// Enabled reports whether a report bucket is configured.
func (c ReportConfig) Enabled() bool {
	return c.Bucket != ""
}

// LoadConfig reads .env (if present), an optional config.yaml and the
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "snaps")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/snaps.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30)

	v.SetDefault("redis.url", "")

	v.SetDefault("worker.count", 2)
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.block_timeout", "5s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_token", "")

	v.SetDefault("fcm.project_id", "")
	v.SetDefault("fcm.client_email", "")
	v.SetDefault("fcm.private_key", "")

	v.SetDefault("report.bucket", "")
	v.SetDefault("report.prefix", "reconcile")
	v.SetDefault("report.endpoint", "")
	v.SetDefault("report.region", "us-east-1")
	v.SetDefault("report.access_key_id", "")
	v.SetDefault("report.secret_access_key", "")
	v.SetDefault("report.use_path_style", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "snaps-engagement")
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.dbname", "DB_NAME")
	_ = v.BindEnv("database.sslmode", "DB_SSLMODE")
	_ = v.BindEnv("database.file_path", "DB_FILE_PATH")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("worker.count", "WORKER_COUNT")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("auth.admin_token", "ADMIN_TOKEN")
	_ = v.BindEnv("fcm.project_id", "FIREBASE_PROJECT_ID")
	_ = v.BindEnv("fcm.client_email", "FIREBASE_CLIENT_EMAIL")
	_ = v.BindEnv("fcm.private_key", "FIREBASE_PRIVATE_KEY")
	_ = v.BindEnv("report.bucket", "REPORT_BUCKET")
	_ = v.BindEnv("report.endpoint", "REPORT_ENDPOINT")
	_ = v.BindEnv("report.region", "REPORT_REGION")
	_ = v.BindEnv("report.access_key_id", "REPORT_ACCESS_KEY_ID")
	_ = v.BindEnv("report.secret_access_key", "REPORT_SECRET_ACCESS_KEY")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.pretty", "LOG_PRETTY")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Worker.Count < 0 {
		return fmt.Errorf("worker.count must be >= 0, got %d", c.Worker.Count)
	}
	return nil
}
