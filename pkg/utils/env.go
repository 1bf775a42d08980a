package utils

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads the .env file at path (if any) into viper and the process
// environment. Missing files are fine, real runs usually configure via env.
func LoadConfig(path string) {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("[CONFIG] Loaded environment from .env file")
	}

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.WithError(err).Warn("[CONFIG] Failed reading .env file")
		}
	}
}
