package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every setting the service reads from the environment.
type Config struct {
	// Server config
	ListenAddr string
	BaseURL    string
	Env        string
	Debug      bool

	// Key-value store config
	StoreURL   string
	StoreToken string

	// Hosted realtime broker config (optional; the in-process hub is always on)
	BrokerHost   string
	BrokerAppID  string
	BrokerKey    string
	BrokerSecret string

	// Audit pipeline config (optional)
	AMQPURL      string
	AMQPExchange string

	// Session config
	JWTSecret  []byte
	SessionTTL time.Duration

	// OAuth2 config
	GoogleClientID     string
	GoogleClientSecret string

	// Tracing config
	OTLPEndpoint string
}

// Load reads the .env file at path (missing file is fine, the environment
// still applies) and builds the config with fallbacks for optional values.
func Load(path string) *Config {
	_ = godotenv.Load(path)

	sessionTTL, err := strconv.Atoi(os.Getenv("SESSION_TTL_MINUTES"))
	if err != nil {
		// Fallback to default value (12 hours)
		sessionTTL = 720
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	exchange := os.Getenv("AMQP_EXCHANGE")
	if exchange == "" {
		exchange = "chat.audit"
	}

	return &Config{
		ListenAddr: listenAddr,
		BaseURL:    baseURL,
		Env:        env,
		Debug:      os.Getenv("DEBUG") == "true",

		StoreURL:   os.Getenv("STORE_REST_URL"),
		StoreToken: os.Getenv("STORE_REST_TOKEN"),

		BrokerHost:   os.Getenv("BROKER_HOST"),
		BrokerAppID:  os.Getenv("BROKER_APP_ID"),
		BrokerKey:    os.Getenv("BROKER_KEY"),
		BrokerSecret: os.Getenv("BROKER_SECRET"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: exchange,

		JWTSecret:  []byte(os.Getenv("JWT_SECRET")),
		SessionTTL: time.Minute * time.Duration(sessionTTL),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
	}
}
