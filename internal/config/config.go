package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Cookie   CookieConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// AuthConfig holds authentication bootstrap configuration
type AuthConfig struct {
	// RootAdminEmail is the single bootstrap administrator address.
	// Injected here instead of hard-coded so deployments can rotate it.
	RootAdminEmail string
	// PasswordLoginEnabled models whether the identity provider has
	// email/password accounts configured. When false, only the root-admin
	// local bypass can establish a session.
	PasswordLoginEnabled bool
	// EncryptionKey is the static secret for the KYC image codec.
	EncryptionKey string
}

// UploadConfig holds document/image upload configuration
type UploadConfig struct {
	Timeout time.Duration
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Auth:     loadAuthConfig(),
		Upload:   loadUploadConfig(),
		Cookie:   loadCookieConfig(appMode),
	}

	if config.Auth.RootAdminEmail == "" {
		return nil, fmt.Errorf("ROOT_ADMIN_EMAIL is required")
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "chitfund_backoffice"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadAuthConfig loads authentication bootstrap config
func loadAuthConfig() AuthConfig {
	passwordLogin, _ := strconv.ParseBool(getEnv("AUTH_PASSWORD_LOGIN_ENABLED", "true"))

	return AuthConfig{
		RootAdminEmail:       strings.ToLower(strings.TrimSpace(getEnv("ROOT_ADMIN_EMAIL", ""))),
		PasswordLoginEnabled: passwordLogin,
		EncryptionKey:        getEnv("ENCRYPTION_KEY", "default-secure-key-change-this"),
	}
}

// loadUploadConfig loads document/image upload config
func loadUploadConfig() UploadConfig {
	seconds, _ := strconv.Atoi(getEnv("UPLOAD_TIMEOUT_SECONDS", "15"))
	if seconds < 1 {
		seconds = 15
	}

	return UploadConfig{
		Timeout: time.Duration(seconds) * time.Second,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://console.chitfund.example.com"
	}
	return origins
}
