package config

import "time"

// Config is the root application configuration.
type Config struct {
	Collaborator CollaboratorConfig `yaml:"collaborator"`
	Auth         AuthConfig         `yaml:"auth"`
	Log          LogConfig          `yaml:"log"`
}

// CollaboratorConfig holds the remote GraphQL API settings.
type CollaboratorConfig struct {
	Endpoint string        `yaml:"endpoint" env:"COLLABORATOR_ENDPOINT" env-required:"true"`
	Timeout  time.Duration `yaml:"timeout"  env:"COLLABORATOR_TIMEOUT"  env-default:"15s"`
}

// AuthConfig holds the curator session settings. Token may be empty for
// read-only use.
type AuthConfig struct {
	Token string `yaml:"token" env:"CURATOR_TOKEN"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
