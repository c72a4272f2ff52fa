package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DB      DBConfig    `mapstructure:"db"`
	Auth    AuthConfig  `mapstructure:"auth"`
	Media   MediaConfig `mapstructure:"media"`
	AppHost string      `mapstructure:"host"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

type MediaConfig struct {
	URLEndpoint     string `mapstructure:"url_endpoint"`
	PublicKey       string `mapstructure:"public_key"`
	PrivateKey      string `mapstructure:"private_key"`
	TokenTTLSeconds int    `mapstructure:"token_ttl_seconds"`
}

func Load() (*Config, error) {
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/configs")
	viper.SetConfigName("settings")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("host", ":8080")
	viper.SetDefault("media.token_ttl_seconds", 3600)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
