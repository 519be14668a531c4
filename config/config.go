package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string                `mapstructure:"environment" yaml:"environment"`
	Server      ServerConfig          `mapstructure:"server" yaml:"server"`
	Redis       RedisConfig           `mapstructure:"redis" yaml:"redis"`
	Kafka       KafkaConfig           `mapstructure:"kafka" yaml:"kafka"`
	JWT         JWTConfig             `mapstructure:"jwt" yaml:"jwt"`
	Logging     logging.Config        `mapstructure:"logging" yaml:"logging"`
	Payment     PaymentConfig         `mapstructure:"payment" yaml:"payment"`
	LogService  ServiceConfig         `mapstructure:"log_service" yaml:"log_service"`
	PvP         PvPConfig             `mapstructure:"pvp" yaml:"pvp"`
	Postgres    PostgresConfig        `mapstructure:"postgres" yaml:"postgres"`
	Games       map[string]GameConfig `mapstructure:"games" yaml:"games"`
	TablesDir   string                `mapstructure:"tables_dir" yaml:"tables_dir"`
	Missions    []MissionConfig       `mapstructure:"missions" yaml:"missions"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	// RequestTimeout bounds non-streaming API requests, payment calls included.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	EnableCORS     bool          `mapstructure:"enable_cors" yaml:"enable_cors"`
	// CORSOrigins lists the front-end origins; empty allows any.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	Username     string        `mapstructure:"username" yaml:"username"`
	Password     string        `mapstructure:"password" yaml:"password"`
	DB           int           `mapstructure:"db" yaml:"db"`
	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
	StateTTL     time.Duration `mapstructure:"state_ttl" yaml:"state_ttl"`
	LockTTL      time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers       []string          `mapstructure:"brokers" yaml:"brokers"`
	ConsumerGroup string            `mapstructure:"consumer_group" yaml:"consumer_group"`
	Topics        map[string]string `mapstructure:"topics" yaml:"topics"`
}

// Topic returns the configured topic name for key, or fallback
func (k KafkaConfig) Topic(key, fallback string) string {
	if t, ok := k.Topics[key]; ok && t != "" {
		return t
	}
	return fallback
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret" yaml:"secret"`
	Expiration time.Duration `mapstructure:"expiration" yaml:"expiration"`
}

// ServiceConfig holds external service configuration
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PaymentConfig configures the external payment collaborator
type PaymentConfig struct {
	ServiceConfig `mapstructure:",squash" yaml:",inline"`
	HouseAccount  string `mapstructure:"house_account" yaml:"house_account"`
}

// PvPConfig points at the remote multiplayer session server
type PvPConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	TurnDuration time.Duration `mapstructure:"turn_duration" yaml:"turn_duration"`
}

// PostgresConfig configures the reconciliation store
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// GameConfig holds per-game tunables. Stakes are expressed in Unit.
type GameConfig struct {
	HouseChance float64 `mapstructure:"house_chance" yaml:"house_chance"`
	MinStake    float64 `mapstructure:"min_stake" yaml:"min_stake"`
	MaxStake    float64 `mapstructure:"max_stake" yaml:"max_stake"`
	Unit        string  `mapstructure:"unit" yaml:"unit"`
}

// MissionConfig describes one progress mission
type MissionConfig struct {
	ID     int     `mapstructure:"id" yaml:"id"`
	Title  string  `mapstructure:"title" yaml:"title"`
	Game   string  `mapstructure:"game" yaml:"game"`
	Event  string  `mapstructure:"event" yaml:"event"`
	Target int     `mapstructure:"target" yaml:"target"`
	Reward float64 `mapstructure:"reward" yaml:"reward"`
}

// DefaultGames mirrors the production house chances and stake limits.
func DefaultGames() map[string]GameConfig {
	return map[string]GameConfig{
		"slots":    {HouseChance: 0.9, MinStake: 0.01, MaxStake: 1, Unit: "SOL"},
		"coinflip": {HouseChance: 0.6, MinStake: 0.01, MaxStake: 1, Unit: "SOL"},
		"wheel":    {HouseChance: 0.8, MinStake: 0.01, MaxStake: 1, Unit: "SOL"},
		"cardduel": {HouseChance: 0.7, MinStake: 0.01, MaxStake: 1, Unit: "SOL"},
		"poker":    {HouseChance: 0, MinStake: 1_000_000, MaxStake: 1_000_000_000, Unit: "lamports"},
	}
}

// DefaultMissions returns the stock mission set
func DefaultMissions() []MissionConfig {
	return []MissionConfig{
		{ID: 1, Title: "Play 5 spins in Meme Slots", Game: "slots", Event: "play", Target: 5, Reward: 0.01},
		{ID: 2, Title: "Win 1 game in Card Duel", Game: "cardduel", Event: "win", Target: 1, Reward: 0.02},
		{ID: 3, Title: "Spin the Crazy Time wheel 3 times", Game: "wheel", Event: "play", Target: 3, Reward: 0.015},
	}
}

// Load loads configuration from YAML file using Viper
func Load(filename string) (*Config, error) {
	cfg, _, err := LoadWithViper(filename)
	return cfg, err
}

// LoadWithViper loads configuration and returns the viper instance for custom usage
func LoadWithViper(filename string) (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&config, hook); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, v, nil
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 25 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.StateTTL == 0 {
		c.Redis.StateTTL = 24 * time.Hour
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 2 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 10 * time.Second
	}
	if c.LogService.Timeout == 0 {
		c.LogService.Timeout = 10 * time.Second
	}
	if c.PvP.TurnDuration == 0 {
		c.PvP.TurnDuration = 30 * time.Second
	}
	if c.JWT.Expiration == 0 {
		c.JWT.Expiration = 24 * time.Hour
	}

	defaults := DefaultGames()
	if c.Games == nil {
		c.Games = make(map[string]GameConfig, len(defaults))
	}
	for kind, def := range defaults {
		g, ok := c.Games[kind]
		if !ok {
			c.Games[kind] = def
			continue
		}
		if g.MinStake == 0 {
			g.MinStake = def.MinStake
		}
		if g.MaxStake == 0 {
			g.MaxStake = def.MaxStake
		}
		if g.Unit == "" {
			g.Unit = def.Unit
		}
		c.Games[kind] = g
	}
	if len(c.Missions) == 0 {
		c.Missions = DefaultMissions()
	}
}

// Game returns the tunables for a game kind
func (c *Config) Game(kind string) (GameConfig, bool) {
	g, ok := c.Games[kind]
	return g, ok
}

// IsDevelopment returns true if environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
