package api_gateway_config

import (
	"time"

	common "github.com/NordCoder/Versionwatch/internal/config/common"
	pg "github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type Auth struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	AdminToken string        `mapstructure:"admin_token"`
}

type Feed struct {
	SiteURL     string `mapstructure:"site_url"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Limit       int    `mapstructure:"limit"`
}

type Config struct {
	App      common.App      `mapstructure:"app"`
	Server   Server          `mapstructure:"server"`
	DB       pg.Config       `mapstructure:"db"`
	OTEL     common.OTEL     `mapstructure:"otel"`
	Log      common.Log      `mapstructure:"log"`
	Auth     Auth            `mapstructure:"auth"`
	Feed     Feed            `mapstructure:"feed"`
	Vendor   common.Vendor   `mapstructure:"vendor"`
	Notifier common.Notifier `mapstructure:"notifier"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
