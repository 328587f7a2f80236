package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendMemory = "memory"
	BackendDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	StorageBackend string
	SeedDemo       bool

	AWSRegion string
	// AWSEndpointURL is empty in prod and points at LocalStack in dev.
	AWSEndpointURL string
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// SnapshotBucket is optional; when set the memory backend is loaded from
	// and saved to SnapshotKey in it.
	SnapshotBucket string
	SnapshotKey    string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SNSTopicARN            string
	SMTPHost               string
	SMTPPort               string
	SMTPFrom               string
	SMTPUsername           string
	SMTPPassword           string
	AnnouncementRecipients []string

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Requests      string
	Notifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		SeedDemo:       getEnvBool("SEED_DEMO", false),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Requests:      getEnv("DYNAMO_TABLE_REQUESTS", "service_requests"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
		},
		SnapshotBucket:         getEnv("SNAPSHOT_BUCKET", ""),
		SnapshotKey:            getEnv("SNAPSHOT_KEY", "community-hub/snapshot.json"),
		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:              time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		SNSTopicARN:            getEnv("SNS_TOPIC_ARN", ""),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnv("SMTP_PORT", "1025"),
		SMTPFrom:               getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		AnnouncementRecipients: splitList(getEnv("ANNOUNCEMENT_RECIPIENTS", "")),
		AllowedOrigins:         splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
