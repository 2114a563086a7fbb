package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AWS      AWSConfig
	Firebase FirebaseConfig
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig carries everything the provisioner, DNS manager and mailer
// need. AgentAccessKeyID/AgentSecretAccessKey are the restricted
// credentials baked into instance user data for the on-box ddns updater;
// they are distinct from the API's own credentials.
type AWSConfig struct {
	Region                string
	AccessKeyID           string
	SecretAccessKey       string
	HostedZoneID          string
	Domain                string
	LaunchTemplateID      string
	LaunchTemplateVersion string
	RelayBucket           string
	AgentAccessKeyID      string
	AgentSecretAccessKey  string
	MailFrom              string
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	BaseURL     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "broadcast"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:                getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:           getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:       getEnv("AWS_SECRET_ACCESS_KEY", ""),
			HostedZoneID:          getEnv("HOSTED_ZONE_ID", ""),
			Domain:                getEnv("RELAY_DOMAIN", "nylund.us"),
			LaunchTemplateID:      getEnv("LAUNCH_TEMPLATE_ID", ""),
			LaunchTemplateVersion: getEnv("LAUNCH_TEMPLATE_VERSION", "$Latest"),
			RelayBucket:           getEnv("RELAY_BUCKET", ""),
			AgentAccessKeyID:      getEnv("EC2_ACCESS_KEY_ID", ""),
			AgentSecretAccessKey:  getEnv("EC2_SECRET_ACCESS_KEY", ""),
			MailFrom:              getEnv("MAIL_FROM", "broadcast@nylund.us"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			BaseURL:     getEnv("BASE_URL", "https://app.nylund.us"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.AWS.HostedZoneID == "" {
		return fmt.Errorf("HOSTED_ZONE_ID is required")
	}

	if c.AWS.LaunchTemplateID == "" {
		return fmt.Errorf("LAUNCH_TEMPLATE_ID is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
