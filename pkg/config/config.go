// Package config assembles VM tuning knobs from CLI flags and an optional
// YAML file: operand-stack depth per frame, mailbox buffer size, and
// default log level/trace switch.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// Config holds every tunable the VM reads at startup. Zero values are
// filled in by Defaults before flags and the YAML file are applied, so a
// config file only needs to name the knobs it wants to override.
type Config struct {
	// FrameStackDepth bounds how many values a single frame's operand
	// stack may hold before the interpreter raises InvalidOperation,
	// guarding against a runaway block rather than growing forever.
	FrameStackDepth int `yaml:"frame_stack_depth"`
	// MailboxBuffer sizes the task mailbox's channel buffer.
	MailboxBuffer int `yaml:"mailbox_buffer"`
	// LogLevel is a logrus level name: trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Trace turns on per-instruction interpreter trace logging by forcing
	// the logger's level to trace, whatever LogLevel says. The program's
	// own Logger calls go through the same logger, so all of their levels
	// pass the filter as well.
	Trace bool `yaml:"trace"`
}

// Defaults returns the VM's built-in tuning values, used before any flag
// or YAML override is applied.
func Defaults() Config {
	return Config{
		FrameStackDepth: 4096,
		MailboxBuffer:   64,
		LogLevel:        "info",
	}
}

// Parse builds a Config from args (typically os.Args[1:]): a -config flag
// names an optional YAML file loaded first, then individual flags
// override whatever the file set. fs is normally flag.NewFlagSet so
// callers can embed this alongside a CLI subcommand's own flags.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Defaults()

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to a YAML tuning file")
	stackDepth := fs.Int("stack-depth", 0, "operand stack depth per frame (0 keeps the config/default value)")
	mailboxBuffer := fs.Int("mailbox-buffer", 0, "task mailbox channel buffer size (0 keeps the config/default value)")
	logLevel := fs.String("log-level", "", "logrus level: trace, debug, info, warn, error")
	trace := fs.Bool("trace", false, "enable per-instruction interpreter trace logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if configPath != "" {
		if err := loadYAML(configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if *stackDepth != 0 {
		cfg.FrameStackDepth = *stackDepth
	}
	if *mailboxBuffer != 0 {
		cfg.MailboxBuffer = *mailboxBuffer
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *trace {
		cfg.Trace = true
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Logger builds a logrus.Logger honoring cfg's LogLevel and Trace switch.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if c.Trace {
		level = logrus.TraceLevel
	}
	log.SetLevel(level)
	return log
}
