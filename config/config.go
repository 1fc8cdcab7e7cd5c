package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type HTTPServConfig struct {
	ServerAddr string `env:"HTTP_SERVER_ADDRESS" env-default:":8080"`
}

type ServKeysConfig struct {
	// ServerKeyPath is the server's long-term identity. Deleting this file
	// invalidates every client that pinned the old public key.
	ServerKeyPath string `env:"SERVER_KEY_PATH" env-default:"keys/server_identity.json"`
}

type SecureConfig struct {
	LegacyPassphrase string        `env:"LEGACY_PASSPHRASE" env-required:"true"`
	SessionMaxAge    time.Duration `env:"SESSION_MAX_AGE" env-default:"24h"`
	SweepInterval    time.Duration `env:"SESSION_SWEEP_INTERVAL" env-default:"1h"`
}

type RedisConfig struct {
	ServerAddr string `env:"REDIS_SERVER_ADDRESS" env-default:"localhost:6379"`
}

type GeneratorConfig struct {
	UpstreamURL string        `env:"GENERATOR_UPSTREAM_URL" env-required:"true"`
	Timeout     time.Duration `env:"GENERATOR_TIMEOUT" env-default:"60s"`
}

type LimiterConfig struct {
	RPC   float64       `env:"RPC" env-default:"5"`
	Burst int           `env:"BURST" env-default:"10"`
	TTL   time.Duration `env:"EXP_TTL" env-default:"1h"`
}

type Config struct {
	HTTPServ  HTTPServConfig
	ServKeys  ServKeysConfig
	Secure    SecureConfig
	Redis     RedisConfig
	Generator GeneratorConfig
	HSLimiter  LimiterConfig `env-prefix:"HS_LIMITER_"`
	MsgLimiter LimiterConfig `env-prefix:"MSG_LIMITER_"`
}

func MustLoad() *Config {
	path := getConfigPath()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			panic("config file does not exist: " + path)
		}
		if err := godotenv.Load(path); err != nil {
			panic(fmt.Sprintf("cannot load config file %s: %v", path, err))
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to load environment variables: %v", err))
	}

	return &cfg
}

func getConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	return res
}
