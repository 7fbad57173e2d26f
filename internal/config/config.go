package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	applog "github.com/osmium8/reviews-backend/internal/log"
)

type Config struct {
	APIURL           string        `env:"API_URL" envDefault:"/api/v1"`
	ConnectionString string        `env:"CONNECTION_STRING" envDefault:"reviews.db"`
	DBName           string        `env:"DB_NAME" envDefault:"reviews"`
	Secret           string        `env:"SECRET"`
	Port             int           `env:"PORT" envDefault:"3000"`
	UploadDir        string        `env:"UPLOAD_DIR" envDefault:"public/uploads"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile          string        `env:"LOG_FILE"`
	AdminEmail       string        `env:"ADMIN_EMAIL"`
	AdminPassword    string        `env:"ADMIN_PASSWORD"`
	CORSOrigins      string        `env:"CORS_ORIGINS" envDefault:"*"`
}

// Load reads the process environment. SECRET is mandatory.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	applog.Info(nil, "config.loaded", map[string]any{
		"api_url":    cfg.APIURL,
		"db":         cfg.Backend(),
		"db_name":    cfg.DBName,
		"port":       cfg.Port,
		"upload_dir": cfg.UploadDir,
		"log_file":   cfg.LogFile,
	})
	return cfg, nil
}

func (c Config) validate() error {
	if c.Secret == "" {
		return errors.New("SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if !strings.HasPrefix(c.APIURL, "/") {
		return fmt.Errorf("API_URL must start with '/': %q", c.APIURL)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive: %s", c.TokenTTL)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// Backend reports which store the connection string selects.
func (c Config) Backend() string {
	if IsMongoURI(c.ConnectionString) {
		return "mongo"
	}
	return "sqlite"
}

func IsMongoURI(s string) bool {
	return strings.HasPrefix(s, "mongodb://") || strings.HasPrefix(s, "mongodb+srv://")
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Origins splits CORS_ORIGINS into the comma form the CORS middleware expects.
func (c Config) Origins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
