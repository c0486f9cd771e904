package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers selectable with DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Object stores selectable with OBJECT_STORE.
const (
	StoreLocal  = "local"
	StoreS3     = "s3"
	StoreMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	OpenAIAPIKey  string
	LLMModel      string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	PersonaFile string

	// CompletionRatePerMin limits analyze and chat calls per client IP; 0 disables.
	CompletionRatePerMin int
	MaxUploadBytes       int64
}

// Load reads configuration from the environment. .env files are loaded first
// without overriding variables that are already set.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	driver := normalizeDriver(os.Getenv("DB_DRIVER"), dbURL)

	if env == "production" && driver == DriverPostgres && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  env,
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DBDriver:             driver,
		DatabaseURL:          dbURL,
		SQLitePath:           getEnv("SQLITE_PATH", "./data/persona-review.db"),
		ObjectStoreType:      normalizeStoreType(getEnv("OBJECT_STORE", StoreLocal)),
		LocalStoreDir:        getEnv("LOCAL_STORE_DIR", "./data/uploads"),
		AWSRegion:            getEnv("AWS_REGION", ""),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Prefix:             getEnv("S3_PREFIX", "documents/"),
		SSEKMSKeyID:          getEnv("SSE_KMS_KEY_ID", ""),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		OpenAITimeout:        time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 120)) * time.Second,
		PersonaFile:          os.Getenv("PERSONA_FILE"),
		CompletionRatePerMin: getEnvInt("COMPLETION_RATE_PER_MIN", 20),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
	}
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: ignoring %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("config: invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// normalizeDriver defaults to postgres when a DATABASE_URL is present and to
// memory otherwise.
func normalizeDriver(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "memory":
		return DriverMemory
	}
	if strings.TrimSpace(dbURL) != "" {
		return DriverPostgres
	}
	return DriverMemory
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return StoreS3
	case "memory":
		return StoreMemory
	default:
		return StoreLocal
	}
}
