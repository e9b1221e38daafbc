package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/iio/sysfs"
)

type watchConfig struct {
	// Device pins watch to one sysfs device path, skipping the picker.
	Device   string
	Duration time.Duration
	SysRoot  string
	DevRoot  string
}

// rawWatchConfig is the yaml shape; the duration travels as a string.
type rawWatchConfig struct {
	Device   string `yaml:"device"`
	Duration string `yaml:"duration"`
	SysRoot  string `yaml:"sys_root"`
	DevRoot  string `yaml:"dev_root"`
}

func defaultWatchConfig() watchConfig {
	return watchConfig{
		SysRoot: sysfs.DefaultSysRoot,
		DevRoot: sysfs.DefaultDevRoot,
	}
}

func loadWatchConfig(path string) (watchConfig, error) {
	cfg := defaultWatchConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	var raw rawWatchConfig
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return cfg, fmt.Errorf("could not parse config: %w", err)
	}
	cfg.Device = raw.Device
	if raw.Duration != "" {
		if cfg.Duration, err = time.ParseDuration(raw.Duration); err != nil {
			return cfg, fmt.Errorf("could not parse duration: %w", err)
		}
	}
	if raw.SysRoot != "" {
		cfg.SysRoot = raw.SysRoot
	}
	if raw.DevRoot != "" {
		cfg.DevRoot = raw.DevRoot
	}
	return cfg, nil
}
