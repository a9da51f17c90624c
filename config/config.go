package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	SaltRound int

	SMSApiKey   string
	SMSApiUrl   string
	SMSSenderId string
	SMSTemplate string

	SendGridKey string
	EmailSender string

	// OTP challenge policy. Zero values reproduce the legacy behaviour:
	// challenges never expire and attempts are unbounded.
	OTPExpiryMinutes int
	OTPMaxAttempts   int

	// Session revocation policy
	SessionHardDelete       bool
	CascadeSessionsOnDelete bool
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
		Port:      getEnv("PORT", "3000"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		SMSApiKey:   getEnv("SMS_API_KEY", "defaultSecret"),
		SMSApiUrl:   getEnv("SMS_API_URL", "https://www.fast2sms.com/dev/bulkV2"),
		SMSSenderId: getEnv("SMS_SENDER_ID", "MDBOOK"),
		SMSTemplate: getEnv("SMS_TEMPLATE_ID", "197302"),

		SendGridKey: getEnv("SENDGRID_API_KEY", "defaultSecret"),
		EmailSender: getEnv("EMAIL_SENDER", "no-reply@medibook.in"),

		OTPExpiryMinutes: getEnvInt("OTP_EXPIRY_MINUTES", 0),
		OTPMaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 0),

		SessionHardDelete:       getEnvBool("SESSION_HARD_DELETE", false),
		CascadeSessionsOnDelete: getEnvBool("CASCADE_SESSIONS_ON_DELETE", false),
	}

	// Validate critical configuration
	if AppConfig.SMSApiKey == "defaultSecret" {
		log.Println("Warning: Using default SMS_API_KEY. Update it in your environment.")
	}
	if AppConfig.SendGridKey == "defaultSecret" {
		log.Println("Warning: Using default SENDGRID_API_KEY. Update it in your environment.")
	}
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

// getEnvBool retrieves an environment variable as a boolean or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
