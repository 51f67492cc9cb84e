package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Gate query service (consumed by the key-release service)
	GatePort      string
	GateRateLimit int
	GateRateBurst time.Duration

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (notifier fan-out)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	NotifyChannel      string

	// Notification stream
	NotificationStream string
	StreamMaxLen       int64

	// Ledger configuration
	RequireHolderBurn bool
	ProofSecret       string

	// Treasury configuration
	TreasuryProvider string
	CustodySubKey    string
	CustodyPubKey    string
	CustodySecret    string
	CustodyUUID      string
	CustodyChannel   string
	CustodyInstruct  string
	CustodyCurrency  string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Gate
		GatePort:      getEnv("GATE_PORT", "8091"),
		GateRateLimit: getEnvAsInt("GATE_RATE_LIMIT", 60),
		GateRateBurst: getEnvAsDuration("GATE_RATE_WINDOW", "1m"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		NotifyChannel:      getEnv("NOTIFY_CHANNEL", "ledger-events"),

		// Stream
		NotificationStream: getEnv("NOTIFICATION_STREAM", "ledger:notifications"),
		StreamMaxLen:       int64(getEnvAsInt("STREAM_MAX_LEN", 100000)),

		// Ledger
		RequireHolderBurn: getEnvAsBool("REQUIRE_HOLDER_BURN", true),
		ProofSecret:       getEnv("PROOF_SECRET", ""),

		// Treasury
		TreasuryProvider: getEnv("TREASURY_PROVIDER", "memory"),
		CustodySubKey:    getEnv("CUSTODY_PN_SUBKEY", ""),
		CustodyPubKey:    getEnv("CUSTODY_PN_PUBKEY", ""),
		CustodySecret:    getEnv("CUSTODY_PN_SECRET", ""),
		CustodyUUID:      getEnv("CUSTODY_PN_UUID", "ticket-ledger"),
		CustodyChannel:   getEnv("CUSTODY_PN_CHANNEL", "custody-settlements"),
		CustodyInstruct:  getEnv("CUSTODY_PN_INSTRUCT", "custody-instructions"),
		CustodyCurrency:  getEnv("CUSTODY_CURRENCY", "USD"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
