package config

import (
	"errors"
	"log/slog"

	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Mongo      MongoConfig
	Auth       Auth
	LoggerMode LoggerMode
}

type Server struct {
	AppPort      int
	SocketPort   int
	SocketRoute  string
	ClientOrigin string
}

type MongoConfig struct {
	Uri                     string
	Database                string
	ConversationsCollection string
	MessagesCollection      string
	ConnectionsCollection   string
	UsersCollection         string
}

type Auth struct {
	JWTSecret string
}

type LoggerMode struct {
	Development bool
	Level       string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c)
	if err != nil {
		slog.Error("Unable to unmarshal config", "err", err)
		return nil, err
	}
	return &c, nil
}
