package version_checker_config

import (
	"strings"

	"github.com/spf13/viper"

	common "github.com/NordCoder/Versionwatch/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	common.SetDefaults(v, "version-checker")

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "versionwatch.versions.detected")

	v.SetDefault("redis.enable", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("checker.cron", "*/10 * * * *")
	v.SetDefault("checker.run_on_start", true)
	v.SetDefault("checker.cycle_timeout", "5m")
	v.SetDefault("checker.lock_ttl", "9m")
	v.SetDefault("checker.metrics_addr", ":8082")

	v.SetDefault("outbox.workers", 1)
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.wait", "1s")
	v.SetDefault("outbox.in_progress_ttl", "30s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
