// Package config resolves where the board lives and who is posting to it.
// Values come from ~/.iris.config.yaml, then ~/.iris.env, then IRIS_*
// environment variables, later sources winning.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/systemshift/iris/internal/safefile"
)

const (
	FileName    = ".iris.config.yaml"
	EnvFileName = ".iris.env"
)

// Config is the resolved configuration. Paths are absolute after Load.
type Config struct {
	MessageFile string `yaml:"message_file"`
	ReadFile    string `yaml:"read_file,omitempty"`
	HistoryFile string `yaml:"history_file"`
	Glob        string `yaml:"glob"`
	User        string `yaml:"user,omitempty"`
	Hostname    string `yaml:"hostname,omitempty"`
	Editor      string `yaml:"editor,omitempty"`
	Width       int    `yaml:"width,omitempty"`
	LogLevel    string `yaml:"log_level"`
}

// Default is written to a new config file. Empty fields are detected at
// load time.
func Default() Config {
	return Config{
		MessageFile: "~/.iris.messages",
		HistoryFile: "~/.iris.history",
		Glob:        "/home/*/.iris.messages",
		LogLevel:    "warn",
	}
}

// Load reads the configuration for the user whose home is home, creating
// the config file with defaults on first run.
func Load(home string) (Config, error) {
	path := filepath.Join(home, FileName)
	data, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, err
	}
	if _, err := safefile.CreateExclusive(path, data, 0644); err != nil {
		return Config{}, fmt.Errorf("create config %s: %w", path, err)
	}

	cfg := Default()
	data, err = os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(filepath.Join(home, EnvFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", EnvFileName, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.resolve(home)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.MessageFile, "IRIS_MESSAGE_FILE")
	set(&c.ReadFile, "IRIS_READ_FILE")
	set(&c.HistoryFile, "IRIS_HISTORY_FILE")
	set(&c.Glob, "IRIS_GLOB")
	set(&c.User, "IRIS_USER")
	set(&c.Hostname, "IRIS_HOSTNAME")
	set(&c.Editor, "IRIS_EDITOR")
	set(&c.LogLevel, "IRIS_LOG_LEVEL")
	if c.User == "" {
		set(&c.User, "USER", "LOGNAME", "USERNAME")
	}
	if c.Editor == "" {
		set(&c.Editor, "VISUAL", "EDITOR")
	}
	if v := os.Getenv("IRIS_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("IRIS_WIDTH: %q is not a width", v)
		}
		c.Width = n
	}
	return nil
}

func (c *Config) resolve(home string) {
	c.MessageFile = expandHome(c.MessageFile, home)
	c.HistoryFile = expandHome(c.HistoryFile, home)
	if c.ReadFile == "" {
		c.ReadFile = ReadFileFor(c.MessageFile)
	} else {
		c.ReadFile = expandHome(c.ReadFile, home)
	}
	if c.Hostname == "" {
		c.Hostname = DomainName()
	}
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// ReadFileFor derives a read file path from a record file path:
// ~/.iris.messages pairs with ~/.iris.read.
func ReadFileFor(messageFile string) string {
	if strings.HasSuffix(messageFile, ".messages") {
		return strings.TrimSuffix(messageFile, ".messages") + ".read"
	}
	return messageFile + ".read"
}

// DomainName returns the host's DNS domain, the part of the fully
// qualified host name after the first dot. A host name without a domain is
// returned whole.
func DomainName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "localhost"
	}
	if _, domain, ok := strings.Cut(host, "."); ok && domain != "" {
		return domain
	}
	return host
}

// Author is the identity stamped on new records.
func (c Config) Author() string {
	return c.User + "@" + c.Hostname
}

// Validate reports settings the board cannot run without.
func (c Config) Validate() error {
	if c.User == "" {
		return errors.New("cannot determine user name: set USER or IRIS_USER")
	}
	if c.MessageFile == "" {
		return errors.New("message_file is empty")
	}
	if _, err := filepath.Match(c.Glob, ""); err != nil {
		return fmt.Errorf("glob %q: %w", c.Glob, err)
	}
	return nil
}
