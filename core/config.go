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
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string

		Server     ServerConfig
		Session    SessionConfig
		Classifier ClassifierConfig
		Uploads    UploadsConfig
		Redis      RedisConfig
		Database   DatabaseConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	SessionConfig struct {
		TTL time.Duration
		// AdminPasscodeHash is a bcrypt hash; when set, selecting the admin role requires the passcode.
		AdminPasscodeHash string
		DefaultUserID     string
	}

	ClassifierConfig struct {
		URL           string
		Timeout       time.Duration // 0: no timeout
		RatePerSecond float64       // 0: unlimited
		Burst         int
		AuthToken     string
	}

	UploadsConfig struct {
		URL string
	}

	RedisConfig struct {
		Address  string // empty: in-memory stores
		Password string
		DB       int
	}

	DatabaseConfig struct {
		URL string // empty: in-memory history
	}
)

// NewConfig loads the app configuration from the environment (and config/.env.<env> if it exists).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "IntelliScript")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "n4c8-vx2!ud0o@v&1w#r5t$k=3l*9qz+e7p(j)h6fg_sm2by")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.adminPasscodeHash", "")
	v.SetDefault("session.defaultUserID", "1")
	v.SetDefault("classifier.url", "http://localhost:5000/classify")
	v.SetDefault("classifier.timeout", 2*time.Minute)
	v.SetDefault("classifier.ratePerSecond", 5.0)
	v.SetDefault("classifier.burst", 10)
	v.SetDefault("classifier.authToken", "")
	v.SetDefault("uploads.url", "http://localhost:5000/api/uploads")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.url", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Session: SessionConfig{
			TTL:               v.GetDuration("session.ttl"),
			AdminPasscodeHash: v.GetString("session.adminPasscodeHash"),
			DefaultUserID:     v.GetString("session.defaultUserID"),
		},
		Classifier: ClassifierConfig{
			URL:           v.GetString("classifier.url"),
			Timeout:       v.GetDuration("classifier.timeout"),
			RatePerSecond: v.GetFloat64("classifier.ratePerSecond"),
			Burst:         v.GetInt("classifier.burst"),
			AuthToken:     v.GetString("classifier.authToken"),
		},
		Uploads: UploadsConfig{
			URL: v.GetString("uploads.url"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no env lookup, everything in-memory.
func NewTestConfig() *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		Debug:     false,
		TestMode:  true,
		AppName:   "IntelliScript",
		SecretKey: "secret",
		Server: ServerConfig{
			Address:            ":0",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
			DisableReqLogs:     true,
		},
		Session: SessionConfig{
			TTL:           time.Hour,
			DefaultUserID: "1",
		},
		Classifier: ClassifierConfig{
			Timeout: 5 * time.Second,
		},
	}
}
