// Package config loads the application configuration from a config file,
// environment variables and defaults, in that priority order (highest
// first): environment, file, defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration, passed by value at construction
// of the components that need it.
type Config struct {
	// Game server endpoint.
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`

	// Per-call socket timeout in seconds; 0 disables the deadline.
	Timeout int `mapstructure:"timeout" validate:"min=0"`

	// Credentials. Username is required before LOGIN; password is optional.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Optional game selection.
	Game       string `mapstructure:"game"`
	NumPlayers int    `mapstructure:"num_players" validate:"min=0"`
	NumTurns   int    `mapstructure:"num_turns" validate:"min=0"`

	// Visualizer feed listen address; empty disables the HTTP surface.
	Listen string `mapstructure:"listen"`

	Debug bool `mapstructure:"debug"`
}

// Load reads configuration with priority environment > config file >
// defaults. configPath may be empty, in which case config.yaml is searched
// in the working directory and ./configs.
func Load(configPath string) (*Config, error) {
	// Load .env if present; missing files are fine.
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A config file found nowhere on the search path is fine, env vars
		// and defaults apply. An unreadable or malformed one is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key gets a default so AutomaticEnv picks it up even when it is
	// absent from the config file.
	v.SetDefault("host", "")
	v.SetDefault("port", 0)
	v.SetDefault("timeout", 10)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("game", "")
	v.SetDefault("num_players", 0)
	v.SetDefault("num_turns", 0)
	v.SetDefault("listen", "")
	v.SetDefault("debug", false)
}

// Validate checks the configuration before the client connects.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Username == "" {
		return fmt.Errorf("invalid configuration: username is required")
	}
	return nil
}
