package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Review     ReviewConfig     `mapstructure:"review"`
	Multiplier MultiplierConfig `mapstructure:"multiplier"`
	Indexer    IndexerConfig    `mapstructure:"indexer"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 证据文件存储
type StorageConfig struct {
	Backend       string        `mapstructure:"backend"` // local | s3
	LocalDir      string        `mapstructure:"local_dir"`
	PublicPrefix  string        `mapstructure:"public_prefix"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
	S3            S3Config      `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// SimilarityConfig 相似声明检索
type SimilarityConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis
	KeyPrefix string `mapstructure:"key_prefix"`
	Capacity  int    `mapstructure:"capacity"`
}

type ReviewConfig struct {
	ApproveThreshold int     `mapstructure:"approve_threshold"`
	RejectThreshold  int     `mapstructure:"reject_threshold"`
	TierMultiplier   float64 `mapstructure:"tier_multiplier"`
}

type MultiplierConfig struct {
	QuizBonus      float64       `mapstructure:"quiz_bonus"`
	Duration       time.Duration `mapstructure:"duration"`
	PurgeInterval  time.Duration `mapstructure:"purge_interval"` // 0 disables the purge job
	PurgeRetention time.Duration `mapstructure:"purge_retention"`
}

type IndexerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	Concurrency  int           `mapstructure:"concurrency"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Lease        time.Duration `mapstructure:"lease"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type RateLimitConfig struct {
	SubmitPerSecond float64 `mapstructure:"submit_per_second"`
	SubmitBurst     int     `mapstructure:"submit_burst"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Load 读取配置：.env -> config.yaml -> GC_* 环境变量
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查必须的配置项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for s3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	switch c.Similarity.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported similarity backend %q", c.Similarity.Backend)
	}
	if c.Review.ApproveThreshold < 1 || c.Review.RejectThreshold < 1 {
		return errors.New("review thresholds must be positive")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "green_credits.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_prefix", "/uploads")
	v.SetDefault("storage.upload_timeout", 30*time.Second)
	v.SetDefault("storage.s3.region", "auto")

	v.SetDefault("similarity.backend", "memory")
	v.SetDefault("similarity.key_prefix", "gc:sim:")
	v.SetDefault("similarity.capacity", 10000)

	v.SetDefault("review.approve_threshold", 2)
	v.SetDefault("review.reject_threshold", 2)
	v.SetDefault("review.tier_multiplier", 1.5)

	v.SetDefault("multiplier.quiz_bonus", 1.2)
	v.SetDefault("multiplier.duration", 24*time.Hour)
	v.SetDefault("multiplier.purge_retention", 30*24*time.Hour)

	v.SetDefault("indexer.poll_interval", 5*time.Second)
	v.SetDefault("indexer.batch_size", 50)
	v.SetDefault("indexer.concurrency", 4)
	v.SetDefault("indexer.max_attempts", 5)
	v.SetDefault("indexer.lease", 5*time.Minute)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.issuer", "green-credits")

	v.SetDefault("ratelimit.submit_per_second", 0.5)
	v.SetDefault("ratelimit.submit_burst", 5)

	v.SetDefault("sentry.environment", "development")

	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "green-credits")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}
