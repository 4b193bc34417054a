package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	ListenAddr string

	// On-disk layout
	ReceivedDir           string
	RotationIntervalSecs  float64

	// ClickHouse session registry
	RegistryEnabled bool
	ClickHouseAddr  string
	ClickHouseDB    string
	ClickHouseUser  string
	ClickHousePass  string

	// Object storage upload
	UploadEnabled    bool
	UploadBin        bool
	UploadWav        bool
	UploadPrefix     string
	UploadProvider   string // "aws" or "s3compatible"
	UploadBucket     string
	UploadRegion     string
	UploadServiceURL string
	UploadPathStyle  bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		ReceivedDir:          getEnv("RECEIVED_DIR", "."),
		RotationIntervalSecs: getEnvFloat("ROTATION_INTERVAL_SECONDS", 10.0),

		RegistryEnabled: getEnvBool("REGISTRY_ENABLED", false),
		ClickHouseAddr:  getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:    getEnv("CLICKHOUSE_DB", "audiogate"),
		ClickHouseUser:  getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:  getEnv("CLICKHOUSE_PASS", ""),

		UploadEnabled:    getEnvBool("UPLOAD_ENABLED", false),
		UploadBin:        getEnvBool("UPLOAD_BIN", true),
		UploadWav:        getEnvBool("UPLOAD_WAV", true),
		UploadPrefix:     getEnv("UPLOAD_PREFIX", "received"),
		UploadProvider:   getEnv("UPLOAD_PROVIDER", "aws"),
		UploadBucket:     getEnv("UPLOAD_BUCKET", ""),
		UploadRegion:     getEnv("UPLOAD_REGION", "us-east-1"),
		UploadServiceURL: getEnv("UPLOAD_SERVICE_URL", ""),
		UploadPathStyle:  getEnvBool("UPLOAD_PATH_STYLE", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}
