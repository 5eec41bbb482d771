package version_checker_config

import (
	"time"

	common "github.com/NordCoder/Versionwatch/internal/config/common"
	pginfra "github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RedisCfg struct {
	Enable   bool   `mapstructure:"enable"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CheckerCfg struct {
	Cron         string        `mapstructure:"cron"`
	RunOnStart   bool          `mapstructure:"run_on_start"`
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	MetricsAddr  string        `mapstructure:"metrics_addr"`
}

type OutboxCfg struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Config struct {
	App      common.App      `mapstructure:"app"`
	DB       pginfra.Config  `mapstructure:"db"`
	Kafka    KafkaCfg        `mapstructure:"kafka"`
	Redis    RedisCfg        `mapstructure:"redis"`
	Checker  CheckerCfg      `mapstructure:"checker"`
	Outbox   OutboxCfg       `mapstructure:"outbox"`
	Vendor   common.Vendor   `mapstructure:"vendor"`
	Notifier common.Notifier `mapstructure:"notifier"`
	OTEL     common.OTEL     `mapstructure:"otel"`
	Log      common.Log      `mapstructure:"log"`
}
