package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig
	Security  SecurityConfig
	Storage   StorageConfig
	Realtime  RealtimeConfig
	Messaging MessagingConfig
	Tracing   TracingConfig
	Roster    Roster
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
	PublicDir          string
	RosterFile         string
}

type SecurityConfig struct {
	AuthKey          string // plain secret or bcrypt hash ("$2..." prefix)
	TokenSecret      string // signs the session cookie; falls back to AuthKey
	SessionTTL       time.Duration
	CookieName       string
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

type StorageConfig struct {
	DataDir string
}

type RealtimeConfig struct {
	PingInterval       time.Duration
	MaxMissedPings     int
	StatusInterval     time.Duration
	MaxPayloadBytes    int64
	MaxConnections     int
	SendBufferSize     int
	ChatHistoryLimit   int
	MessageRate        float64
	MessageBurst       int
	SerializeMutations bool
}

type MessagingConfig struct {
	NatsURL    string
	RedisURL   string
	EventTopic string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
	SampleRatio float64
}

// Roster is the optional YAML file listing study-room members and the
// websocket endpoints clients may connect to.
type Roster struct {
	Users     []RosterUser     `yaml:"users" json:"users"`
	WsServers []RosterWsServer `yaml:"wsServers" json:"servers"`
}

type RosterUser struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Avatar string `yaml:"avatar,omitempty" json:"avatar,omitempty"`
}

type RosterWsServer struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	authKey := getEnv("AUTH_KEY", "")
	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			PublicDir:          getEnv("PUBLIC_DIR", "./public"),
			RosterFile:         getEnv("ROSTER_FILE", "config/roster.yaml"),
		},
		Security: SecurityConfig{
			AuthKey:          authKey,
			TokenSecret:      getEnv("TOKEN_SECRET", authKey),
			SessionTTL:       getEnvAsDuration("SESSION_TTL", 12*time.Hour),
			CookieName:       getEnv("SESSION_COOKIE_NAME", "token"),
			MaxLoginAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LockoutDuration:  getEnvAsDuration("LOGIN_LOCKOUT", 5*time.Minute),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Realtime: RealtimeConfig{
			PingInterval:       getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
			MaxMissedPings:     getEnvAsInt("WS_MAX_MISSED_PINGS", 2),
			StatusInterval:     getEnvAsDuration("WS_STATUS_INTERVAL", 60*time.Second),
			MaxPayloadBytes:    int64(getEnvAsInt("WS_MAX_PAYLOAD_BYTES", 1024*1024)),
			MaxConnections:     getEnvAsInt("WS_MAX_CONNECTIONS", 100),
			SendBufferSize:     getEnvAsInt("WS_SEND_BUFFER", 256),
			ChatHistoryLimit:   getEnvAsInt("CHAT_HISTORY_LIMIT", 1000),
			MessageRate:        getEnvAsFloat("WS_MESSAGE_RATE", 20),
			MessageBurst:       getEnvAsInt("WS_MESSAGE_BURST", 40),
			SerializeMutations: getEnvAsBool("REALTIME_SERIALIZE_MUTATIONS", true),
		},
		Messaging: MessagingConfig{
			NatsURL:    getEnv("NATS_URL", ""),
			RedisURL:   getEnv("REDIS_URL", ""),
			EventTopic: getEnv("EVENT_TOPIC", "studyroom.events"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "studyroom-be"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
	cfg.Tracing.Environment = cfg.App.Environment

	roster, err := LoadRoster(cfg.App.RosterFile)
	if err != nil {
		log.Printf("Note: roster not loaded (%v), users list is empty", err)
	} else {
		cfg.Roster = roster
	}

	return cfg
}

// LoadRoster reads the YAML roster at path.
func LoadRoster(path string) (Roster, error) {
	var roster Roster
	data, err := os.ReadFile(path)
	if err != nil {
		return roster, fmt.Errorf("read roster: %w", err)
	}
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return roster, fmt.Errorf("parse roster: %w", err)
	}
	for i := range roster.Users {
		roster.Users[i].ID = strings.TrimSpace(roster.Users[i].ID)
	}
	return roster, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
