// Package config the configuration of the command line
package config

import (
	"context"
	"errors"
	"os"

	"github.com/shiroyk/embedjs/internal/logger"
	"github.com/shiroyk/embedjs/internal/utils"
	"github.com/shiroyk/embedjs/js"
	"github.com/shiroyk/embedjs/plugin"
)

// DefaultPath the default configuration file
const DefaultPath = "~/.config/embedjs/config.yml"

type configKey struct{}

// NewContext returns a context that contains the given Config.
func NewContext(ctx context.Context, config Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// FromContext returns the Config stored in ctx by NewContext, or the default
// Config if there is none.
func FromContext(ctx context.Context) Config {
	if config, ok := ctx.Value(configKey{}).(Config); ok {
		return config
	}
	return *DefaultConfig()
}

// Config the embedjs configuration
type Config struct {
	// JS the VM options
	JS js.Options `yaml:"js"`

	// Plugin the plugin options
	Plugin plugin.Options `yaml:"plugin"`

	// Log the logger options
	Log logger.Options `yaml:"log"`
}

// DefaultConfig the default configuration
func DefaultConfig() *Config {
	return &Config{
		JS: js.Options{
			Strict: true,
			Base:   ".",
		},
		Log: logger.Options{
			Level: "info",
		},
	}
}

// ReadConfig read configuration from the file.
// If the configuration file is not existing then create it with default configuration.
func ReadConfig(path string) (*Config, error) {
	file, err := utils.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if _, err = os.Stat(file); errors.Is(err, os.ErrNotExist) {
		config := DefaultConfig()
		if err = utils.WriteYaml(file, config); err != nil {
			return nil, err
		}
		return config, nil
	}

	config := DefaultConfig()
	if err = utils.DecodeYaml(file, config); err != nil {
		return nil, err
	}
	return config, nil
}
