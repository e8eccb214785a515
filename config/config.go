package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	AppEnv string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTKey    string
	JWTTTL    time.Duration
	SaltRound int

	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	EmailProvider  string // smtp or sendgrid
	EmailSender    string
	Password       string // SMTP Password
	SMTPHost       string
	SMTPPort       string
	SendGridAPIKey string

	SMSApiURL   string
	SMSApiKey   string
	SMSSenderID string

	IdentityApiURL     string
	IdentityApiKey     string
	IdentitySecretKey  string
	IdentityApiVersion string

	LMSApiURL string
	LMSApiKey string

	PublicBaseURL    string
	UploadDir        string
	MaxUploadBytes   int
	ApprovalTokenTTL time.Duration
	ExportTokenTTL   time.Duration

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	SuperAdminEmail    string
	SuperAdminPassword string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		AppEnv: getEnv("APP_ENV", "development"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "hrms"),

		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		RedisURL:     getEnv("REDIS_URL", ""),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "onboarding-events"),

		EmailProvider:  getEnv("EMAIL_PROVIDER", "smtp"),
		EmailSender:    getEnv("EMAIL_SENDER", ""),
		Password:       getEnv("PASSWORD", ""),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		SMSApiURL:   getEnv("SMS_API_URL", ""),
		SMSApiKey:   getEnv("SMS_API_KEY", ""),
		SMSSenderID: getEnv("SMS_SENDER_ID", ""),

		IdentityApiURL:     getEnv("IDENTITY_API_URL", ""),
		IdentityApiKey:     getEnv("IDENTITY_API_KEY", ""),
		IdentitySecretKey:  getEnv("IDENTITY_API_SECRET", ""),
		IdentityApiVersion: getEnv("IDENTITY_API_VERSION", "2.0"),

		LMSApiURL: getEnv("LMS_API_URL", ""),
		LMSApiKey: getEnv("LMS_API_KEY", ""),

		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes:   getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024),
		ApprovalTokenTTL: getEnvDuration("APPROVAL_TOKEN_TTL", 7*24*time.Hour),
		ExportTokenTTL:   getEnvDuration("EXPORT_TOKEN_TTL", 24*time.Hour),

		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),

		SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", ""),
		SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.IsProduction() && AppConfig.DBDriver == "sqlite" {
		log.Println("Warning: Using sqlite in production. Set DB_DRIVER=postgres.")
	}
}

// IsProduction reports whether error details must be hidden from clients
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvDuration parses values like "24h" or "90m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
