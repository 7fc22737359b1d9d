package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// MaxUserID is the largest uid the 2-byte wire field can carry.
const MaxUserID = 0xffff

type Config struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"database_url"`
	CertChain     string `yaml:"cert_chain"`
	CertPrivKey   string `yaml:"cert_privkey"`
	CountdownSecs int    `yaml:"countdown_secs"`
	MaxUsers      int    `yaml:"max_users"`
	MaxRoomID     int    `yaml:"max_room_id"`
	RoomQuota     int    `yaml:"room_quota"` // 0 = unlimited
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Host:          "0.0.0.0",
		Port:          "11451",
		CountdownSecs: 5,
		MaxUsers:      MaxUserID,
		MaxRoomID:     99999,
		RoomQuota:     100,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (config.yaml if unset), then the environment. A .env file in
// the working directory is loaded first but never overrides real variables.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("[Config] loaded .env")
	}

	cfg := Default()
	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := loadFile(path, &cfg); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("[Config] ignoring config file")
	}

	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CertChain = getEnv("CERT_CHAIN", cfg.CertChain)
	cfg.CertPrivKey = getEnv("CERT_PRIVKEY", cfg.CertPrivKey)
	cfg.CountdownSecs = getEnvInt("COUNTDOWN_SECS", cfg.CountdownSecs)
	cfg.MaxUsers = getEnvInt("MAX_USERS", cfg.MaxUsers)
	cfg.MaxRoomID = getEnvInt("MAX_ROOM_ID", cfg.MaxRoomID)
	cfg.RoomQuota = getEnvInt("ROOM_QUOTA", cfg.RoomQuota)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if cfg.MaxUsers <= 0 || cfg.MaxUsers > MaxUserID {
		log.Warn().Int("max_users", cfg.MaxUsers).Msg("[Config] MAX_USERS out of range, using 65535")
		cfg.MaxUsers = MaxUserID
	}
	return cfg
}

// TLS reports whether both halves of a certificate pair are configured.
func (c Config) TLS() bool {
	return c.CertChain != "" && c.CertPrivKey != ""
}

func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
