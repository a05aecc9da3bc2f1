package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultAddr = "127.0.0.1:7070"

// initConfig loads environment configuration. Flags still win: resolveAddr
// only consults the environment when the flag was left at its default.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("strata")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("addr", defaultAddr)
}

// resolveAddr layers the --addr flag over STRATA_ADDR over the default.
func resolveAddr(flagValue string) string {
	if flagValue != "" && flagValue != defaultAddr {
		return flagValue
	}
	return viper.GetString("addr")
}
