package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	ProjectPrimary   = "primary"
	ProjectSecondary = "secondary"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	// ActiveProject selects which of the two configured backend projects every module talks to.
	ActiveProject string
	Projects      map[string]DatabaseConfig

	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Attendance AttendanceConfig
	Sheet      SheetConfig
	Exports    ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs caching of aggregated attendance sessions.
type CacheConfig struct {
	Enabled    bool
	SessionTTL time.Duration
}

// AttendanceConfig holds the roll call rules.
type AttendanceConfig struct {
	GroupedActivity string
	Districts       []string
	DefaultDistrict string
	UnknownTeacher  string
}

// SheetConfig fills the static fields of the printed attendance sheet.
type SheetConfig struct {
	Institution      string
	Project          string
	Workload         string
	ArtisticLanguage string
	Schedule         string
	ProgramContent   string
	MinRows          int
}

// ExportsConfig configures asynchronous monthly report exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ActiveDatabase returns the database settings of the selected project, falling back to primary.
func (c *Config) ActiveDatabase() DatabaseConfig {
	if db, ok := c.Projects[c.ActiveProject]; ok {
		return db
	}
	return c.Projects[ProjectPrimary]
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.ActiveProject = strings.ToLower(strings.TrimSpace(v.GetString("ACTIVE_PROJECT")))
	cfg.Projects = map[string]DatabaseConfig{
		ProjectPrimary:   loadDatabase(v, "DB_PRIMARY"),
		ProjectSecondary: loadDatabase(v, "DB_SECONDARY"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_SESSION_CACHE"),
		SessionTTL: parseDuration(v.GetString("SESSION_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Attendance = AttendanceConfig{
		GroupedActivity: v.GetString("ATTENDANCE_GROUPED_ACTIVITY"),
		Districts:       splitAndTrim(v.GetString("ATTENDANCE_DISTRICTS")),
		DefaultDistrict: v.GetString("ATTENDANCE_DEFAULT_DISTRICT"),
		UnknownTeacher:  v.GetString("ATTENDANCE_UNKNOWN_TEACHER"),
	}

	minRows := v.GetInt("SHEET_MIN_ROWS")
	if minRows <= 0 {
		minRows = 15
	}
	cfg.Sheet = SheetConfig{
		Institution:      v.GetString("SHEET_INSTITUTION"),
		Project:          v.GetString("SHEET_PROJECT"),
		Workload:         v.GetString("SHEET_WORKLOAD"),
		ArtisticLanguage: v.GetString("SHEET_ARTISTIC_LANGUAGE"),
		Schedule:         v.GetString("SHEET_SCHEDULE"),
		ProgramContent:   v.GetString("SHEET_PROGRAM_CONTENT"),
		MinRows:          minRows,
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func loadDatabase(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString(prefix + "_HOST"),
		Port:         v.GetInt(prefix + "_PORT"),
		User:         v.GetString(prefix + "_USER"),
		Password:     v.GetString(prefix + "_PASSWORD"),
		Name:         v.GetString(prefix + "_NAME"),
		SSLMode:      v.GetString(prefix + "_SSL_MODE"),
		MaxOpenConns: v.GetInt(prefix + "_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt(prefix + "_MAX_IDLE_CONNS"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ACTIVE_PROJECT", ProjectPrimary)
	for _, prefix := range []string{"DB_PRIMARY", "DB_SECONDARY"} {
		v.SetDefault(prefix+"_HOST", "localhost")
		v.SetDefault(prefix+"_PORT", 5432)
		v.SetDefault(prefix+"_USER", "postgres")
		v.SetDefault(prefix+"_PASSWORD", "postgres")
		v.SetDefault(prefix+"_SSL_MODE", "disable")
		v.SetDefault(prefix+"_MAX_OPEN_CONNS", 10)
		v.SetDefault(prefix+"_MAX_IDLE_CONNS", 5)
	}
	v.SetDefault("DB_PRIMARY_NAME", "matriculas_madeinsertao")
	v.SetDefault("DB_SECONDARY_NAME", "matriculas_madeinsertao_2")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "mis-educa-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SESSION_CACHE", false)
	v.SetDefault("SESSION_CACHE_TTL", "5m")

	v.SetDefault("ATTENDANCE_GROUPED_ACTIVITY", "Percussão/Fanfarra")
	v.SetDefault("ATTENDANCE_DISTRICTS", "Macaoca,Cajazeiras,União,Cacimba Nova,Paus Branco")
	v.SetDefault("ATTENDANCE_DEFAULT_DISTRICT", "Sede")
	v.SetDefault("ATTENDANCE_UNKNOWN_TEACHER", "Não identificado")

	v.SetDefault("SHEET_INSTITUTION", "ESCOLA DE MÚSICA MADE IN SERTÃO")
	v.SetDefault("SHEET_PROJECT", "MIS EDUCA")
	v.SetDefault("SHEET_WORKLOAD", "4h semanais")
	v.SetDefault("SHEET_ARTISTIC_LANGUAGE", "Música")
	v.SetDefault("SHEET_SCHEDULE", "Conforme cronograma")
	v.SetDefault("SHEET_PROGRAM_CONTENT", "Prática instrumental e teoria musical")
	v.SetDefault("SHEET_MIN_ROWS", 15)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
}

// isMissingFile reports whether viper failed because the explicit .env path does not exist.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
