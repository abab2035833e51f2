package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v7"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/yaml.v3"

	"pdusms/modem"
	"pdusms/sms"
	"pdusms/sqlog"
	"pdusms/zabbix"
)

const envPrefix = "PDUSMS_" // prefix of environment overrides

type Config struct {
	Modem   ModemConfig   `yaml:"modem" envPrefix:"MODEM_"`
	Encoder EncoderConfig `yaml:"encoder,omitempty" envPrefix:"ENCODER_"`
	MySQL   string        `yaml:"mysql,omitempty" env:"MYSQL"` // journal DSN, no journal if empty
	Zabbix  zabbix.Log    `yaml:"zabbix,omitempty" envPrefix:"ZABBIX_"`
	Log     LogConfig     `yaml:"log,omitempty" envPrefix:"LOG_"`
	Repeat  string        `yaml:"repeat,omitempty" env:"REPEAT"` // window for dropping repeated messages
	repeat  time.Duration
}

// ModemConfig describes the serial line of the GSM modem.
type ModemConfig struct {
	Port    string `yaml:"port" env:"PORT"`                 // e.g. /dev/ttyUSB0
	Baud    int    `yaml:"baud,omitempty" env:"BAUD"`       // 115200 if zero
	Timeout string `yaml:"timeout,omitempty" env:"TIMEOUT"` // wait for a single response
	timeout time.Duration
}

// EncoderConfig sets the encoding policy.
type EncoderConfig struct {
	MaxParts    int    `yaml:"maxParts,omitempty" env:"MAX_PARTS"`
	Strict      bool   `yaml:"strict,omitempty" env:"STRICT"`
	RejectEmpty bool   `yaml:"rejectEmpty,omitempty" env:"REJECT_EMPTY"`
	Narrow      string `yaml:"narrow,omitempty" env:"NARROW"` // non-ASCII characters allowed in narrow messages
}

// LogConfig describes log output.
type LogConfig struct {
	Level    string            `yaml:"level,omitempty" env:"LEVEL"`
	Prefixed bool              `yaml:"prefixed,omitempty" env:"PREFIXED"` // prefixed console format
	Files    map[string]string `yaml:"files,omitempty"`                   // log file by level name
}

// ParseConfig parses the configuration and applies environment overrides.
func ParseConfig(data []byte) (*Config, error) {
	return parseConfig(data, nil)
}

func parseConfig(data []byte, environment map[string]string) (*Config, error) {
	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	err := env.Parse(config, env.Options{
		Prefix:      envPrefix,
		Environment: environment,
	})
	if err != nil {
		return nil, err
	}
	if config.Modem.Timeout != "" {
		if config.Modem.timeout, err = time.ParseDuration(config.Modem.Timeout); err != nil {
			return nil, fmt.Errorf("modem timeout: %w", err)
		}
	}
	if config.Repeat != "" {
		if config.repeat, err = time.ParseDuration(config.Repeat); err != nil {
			return nil, fmt.Errorf("repeat: %w", err)
		}
	}
	return config, nil
}

// LoadConfig loads and parses the configuration from a file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// NewEncoder returns the encoder for the configured policy.
func (c EncoderConfig) NewEncoder() *sms.Encoder {
	enc := &sms.Encoder{
		MaxParts:    c.MaxParts,
		Strict:      c.Strict,
		RejectEmpty: c.RejectEmpty,
	}
	if c.Narrow != "" {
		extra := c.Narrow
		enc.Classifier.Narrow = func(r rune) bool {
			return sms.IsASCII(r) || strings.ContainsRune(extra, r)
		}
	}
	return enc
}

// Apply sets up logger: level, formatter and per-level files.
func (c LogConfig) Apply(logger *logrus.Logger, debug bool) error {
	level := logrus.InfoLevel
	if c.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(c.Level); err != nil {
			return err
		}
	}
	if debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	if c.Prefixed {
		logger.SetFormatter(new(prefixed.TextFormatter))
	}
	if len(c.Files) > 0 {
		paths := make(lfshook.PathMap, len(c.Files))
		for name, path := range c.Files {
			lvl, err := logrus.ParseLevel(name)
			if err != nil {
				return fmt.Errorf("log file %q: %w", path, err)
			}
			paths[lvl] = path
		}
		logger.AddHook(lfshook.NewHook(paths, &logrus.TextFormatter{DisableColors: true}))
	}
	return nil
}

// Open connects the configured services and returns a gateway. A dry gateway
// has no modem and only encodes messages.
func (c *Config) Open(dry bool) (*Gateway, error) {
	gate := &Gateway{
		Encoder: c.Encoder.NewEncoder(),
		Monitor: c.Zabbix,
		Repeat:  c.repeat,
		Logger:  logrus.StandardLogger().WithField("app", appName),
	}
	if dry {
		return gate, nil
	}
	if c.MySQL != "" {
		db, err := sqlog.Connect(c.MySQL)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		gate.Journal = db
	}
	if c.Modem.Port == "" {
		gate.Close()
		return nil, fmt.Errorf("modem port is not configured")
	}
	trx, err := modem.Dial(c.Modem.Port, c.Modem.Baud)
	if err != nil {
		gate.Close()
		return nil, err
	}
	if c.Modem.timeout > 0 {
		trx.Timeout = c.Modem.timeout
	}
	gate.Modem = trx
	if err := trx.Init(); err != nil {
		gate.Close()
		return nil, err
	}
	return gate, nil
}
