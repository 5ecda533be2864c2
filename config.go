package xsdtree

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the file form of command line settings.
//
//	schema: catalog.xsd
//	path: catalog/item
//	mode: medium
//	format: json
//	pruneTriggers: [admin]
//	log:
//	  level: debug
//	  formatter: json
type Config struct {
	Schema        string    `yaml:"schema"`
	Path          string    `yaml:"path"`
	Mode          Mode      `yaml:"mode"`
	Format        Format    `yaml:"format"`
	PruneTriggers []string  `yaml:"pruneTriggers"`
	Log           LogConfig `yaml:"log"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	Formatter string `yaml:"formatter"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Mode:          ModeMaximum,
		Format:        FormatText,
		PruneTriggers: []string{DefaultPruneTrigger},
		Log: LogConfig{
			Level:     "info",
			Formatter: "text",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	config, err := DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	return config, nil
}

// DecodeConfig parses YAML over the defaults. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	format, err := ParseFormat(string(c.Format))
	if err != nil {
		return err
	}
	c.Format = format
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Formatter {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported logging formatter: %q", c.Log.Formatter)
	}
	return nil
}

// TemplateOptions returns the template options implied by the config.
func (c *Config) TemplateOptions() []TemplateOption {
	if len(c.PruneTriggers) == 0 {
		return nil
	}
	return []TemplateOption{WithPruneTriggers(c.PruneTriggers...)}
}

// Apply configures level and formatter of logger.
func (lc LogConfig) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	switch lc.Formatter {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		return fmt.Errorf("unsupported logging formatter: %q", lc.Formatter)
	}
	return nil
}
