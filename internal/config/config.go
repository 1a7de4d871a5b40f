package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev_secret_change_me"

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	SessionSecret string // セッションCookie署名シークレット
	CookieSecure  bool   // Secure属性を付けるか

	StorageDriver string // memory/postgres/sqlite
	DatabaseURL   string // あればPOSTGRES_*より優先

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	SQLitePath  string // sqlite用のファイル
	CatalogPath string // 空なら同梱カタログ

	NotifyDelay    time.Duration // 通知が消えるまで（2s）
	SessionIdleTTL time.Duration // 使われていないカートをメモリから外すまで
}

// .envがあれば読み込んでから環境変数で設定を作る
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	pgPort, err := getenvInt("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	notifyDelay, err := getenvDuration("NOTIFY_DELAY", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	idleTTL, err := getenvDuration("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	secure, err := getenvBool("COOKIE_SECURE", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieSecure:  secure,

		StorageDriver: getenv("STORAGE_DRIVER", "memory"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "app"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		SQLitePath:  getenv("SQLITE_PATH", "data/storefront.db"),
		CatalogPath: os.Getenv("CATALOG_PATH"),

		NotifyDelay:    notifyDelay,
		SessionIdleTTL: idleTTL,
	}

	//必須チェック
	switch cfg.GoEnv {
	case "dev", "test", "prod":
	default:
		return Config{}, fmt.Errorf("GO_ENV must be dev, test or prod")
	}
	if cfg.SessionSecret == "" {
		if cfg.GoEnv == "prod" {
			return Config{}, fmt.Errorf("SESSION_SECRET is required")
		}
		cfg.SessionSecret = devSessionSecret
	}
	switch cfg.StorageDriver {
	case "memory", "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be memory, postgres or sqlite")
	}
	if cfg.NotifyDelay <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_DELAY must be > 0")
	}
	if cfg.SessionIdleTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}

	return cfg, nil
}

// ":8080" 形式
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
