package api_gateway_config

import (
	"strings"

	"github.com/spf13/viper"

	common "github.com/NordCoder/Versionwatch/internal/config/common"
)

const (
	ErrNoJWTSecret ErrConfig = "auth.jwt_secret must be set"
	ErrShortSecret ErrConfig = "auth.jwt_secret must be at least 32 bytes"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	common.SetDefaults(v, "api-gateway")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", "168h")
	v.SetDefault("auth.issuer", "versionwatch")
	v.SetDefault("auth.admin_token", "")

	v.SetDefault("feed.site_url", "https://cursor-changelog.com")
	v.SetDefault("feed.title", "Cursor Changelog")
	v.SetDefault("feed.description", "Latest versions of the Cursor editor")
	v.SetDefault("feed.limit", 20)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrNoJWTSecret
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		return nil, ErrShortSecret
	}
	return &cfg, nil
}
