package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	JWTSecret  string `env:"JWT_SECRET,required,notEmpty"`

	// AllowAnonymous разрешает подключение к ws без токена (роль guest)
	AllowAnonymous bool `env:"ALLOW_ANONYMOUS" envDefault:"true"`

	// AdminKeyHash - bcrypt хэш ключа для внеполосных админских команд
	AdminKeyHash string `env:"ADMIN_KEY_HASH"`

	Matchmaking  MatchmakingConfig
	Signaling    SignalingConfig
	CoturnServer CoturnConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Bridge       BridgeConfig
}

type MatchmakingConfig struct {
	Modes           []string      `env:"MATCH_MODES" envDefault:"chat,voice,video"`
	MediaModes      []string      `env:"MATCH_MEDIA_MODES" envDefault:"voice,video"`
	TimedModes      []string      `env:"MATCH_TIMED_MODES" envDefault:"voice,video"`
	SessionDuration time.Duration `env:"MATCH_SESSION_DURATION" envDefault:"5m"`
}

// IsKnownMode reports whether clients may queue for mode.
func (m MatchmakingConfig) IsKnownMode(mode string) bool {
	return slices.Contains(m.Modes, mode)
}

func (m MatchmakingConfig) IsMediaMode(mode string) bool {
	return slices.Contains(m.MediaModes, mode)
}

// DurationFor returns the fixed session length for mode, zero when the mode is untimed.
func (m MatchmakingConfig) DurationFor(mode string) time.Duration {
	if !slices.Contains(m.TimedModes, mode) {
		return 0
	}

	return m.SessionDuration
}

type SignalingConfig struct {
	SendBuffer    int           `env:"WS_SEND_BUFFER" envDefault:"64"`
	RateLimit     float64       `env:"WS_RATE_LIMIT" envDefault:"20"`
	RateBurst     int           `env:"WS_RATE_BURST" envDefault:"40"`
	LoopBuffer    int           `env:"LOOP_BUFFER" envDefault:"1024"`
	LobbyInterval time.Duration `env:"LOBBY_INTERVAL" envDefault:"15s"`
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL"`

	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Name     string `env:"POSTGRES_NAME" envDefault:"pairspeak"`
	SSL      string `env:"POSTGRES_SSL" envDefault:"disable"`
}

func (p *PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Name,
		p.SSL,
	)
}

type CoturnConfig struct {
	Host string `env:"COTURN_HOST,required"`

	// Secret - static-auth-secret coturn, нужен для генерации временных кредов
	Secret        string        `env:"COTURN_SECRET,required,notEmpty"`
	CredentialTTL time.Duration `env:"COTURN_CREDENTIAL_TTL" envDefault:"1h"`
}

// URLs returns the udp and tcp TURN endpoints of the relay.
func (c CoturnConfig) URLs() []string {
	return []string{
		fmt.Sprintf("turn:%s?transport=udp", c.Host),
		fmt.Sprintf("turn:%s?transport=tcp", c.Host),
	}
}

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	PresenceTTL time.Duration `env:"REDIS_PRESENCE_TTL" envDefault:"1m"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"signaling-events"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BridgeConfig struct {
	BufferSize   int           `env:"BRIDGE_BUFFER" envDefault:"1024"`
	WriteTimeout time.Duration `env:"BRIDGE_WRITE_TIMEOUT" envDefault:"5s"`
	MaxRetries   uint64        `env:"BRIDGE_MAX_RETRIES" envDefault:"2"`
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if c.Matchmaking.SessionDuration < 0 {
		return nil, fmt.Errorf("negative session duration: %s", c.Matchmaking.SessionDuration)
	}

	return &c, nil
}
