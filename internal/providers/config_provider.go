package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
	"workdiary/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("storage.publicPrefix", "/images")
	v.SetDefault("storage.maxImageBytes", 10<<20)
	v.SetDefault("storage.maxUploadMemory", 32<<20)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("fetcher.timeout", 30*time.Second)
	v.SetDefault("cache.ttl", 5)
	v.SetDefault("maintenance.interval", time.Hour)

	v.BindEnv("logger.level", "WD_LOG_LEVEL")
	v.BindEnv("storage.root", "WD_STORAGE_ROOT")
	v.BindEnv("storage.publicBaseURL", "WD_PUBLIC_BASE_URL")
	v.BindEnv("database.dsn", "WD_DB_DSN")
	v.BindEnv("cache.enabled", "WD_CACHE_ENABLED")
	v.BindEnv("metrics.enabled", "WD_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "WorkDiary"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
