package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string

		Server struct {
			Host            string
			Port            string
			AllowedOrigins  []string
			ShutdownTimeout time.Duration
		}

		Database struct {
			URI     string
			Name    string
			Timeout time.Duration
		}

		// Timezone used for calendar-day boundaries on attendance records.
		Timezone *time.Location

		RollbarToken string
	}
)

// NewConfig loads configuration from the environment (prefixed with the
// current ENV name) on top of defaults, loading config/.env.<env> first
// if it exists.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("host", "")
	v.SetDefault("port", "8000")
	v.SetDefault("allowedOrigins", []string{"*"})
	v.SetDefault("shutdownTimeout", 10*time.Second)
	v.SetDefault("databaseUri", "mongodb://localhost:27017")
	v.SetDefault("databaseName", "mahudhurio")
	v.SetDefault("databaseTimeout", 10*time.Second)
	v.SetDefault("timezone", "")
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Timezone:     loadLocation(v.GetString("timezone")),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("host")
	conf.Server.Port = v.GetString("port")
	conf.Server.AllowedOrigins = v.GetStringSlice("allowedOrigins")
	conf.Server.ShutdownTimeout = v.GetDuration("shutdownTimeout")
	conf.Database.URI = v.GetString("databaseUri")
	conf.Database.Name = v.GetString("databaseName")
	conf.Database.Timeout = v.GetDuration("databaseTimeout")
	return conf
}

func (conf *Config) Address() string {
	return conf.Server.Host + ":" + conf.Server.Port
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("config.time.LoadLocation(%s): %v", name, err)
	}
	return loc
}
