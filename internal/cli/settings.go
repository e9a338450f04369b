// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configDirName  = "nntp"
	configFileName = "config"
	configFileType = "toml"
	envPrefix      = "NNTP"
)

// Settings is the content of the configuration file.
type Settings struct {
	Host               string `toml:"host"`
	Port               uint16 `toml:"port"`
	TLS                bool   `toml:"tls"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	Timeout            string `toml:"timeout"`
	Proxy              string `toml:"proxy"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	Database           string `toml:"database"`
}

// TimeoutDuration parses Timeout, returning zero when empty.
func (s Settings) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
	}
	return d, nil
}

// Redacted returns a copy with the password hidden.
func (s Settings) Redacted() Settings {
	if s.Password != "" {
		s.Password = "********"
	}
	return s
}

// defaultConfigDir returns ~/.config/nntp.
func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", configDirName), nil
}

// defaultConfigPath returns ~/.config/nntp/config.toml.
func defaultConfigPath() (string, error) {
	dir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName+"."+configFileType), nil
}

// defaultSettings returns the settings used when nothing is configured.
func defaultSettings() (Settings, error) {
	dir, err := defaultConfigDir()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Timeout:  "30s",
		Database: filepath.Join(dir, "headers.db"),
	}, nil
}

// loadSettings reads the configuration file, if any, and applies the NNTP_
// environment variables on top. An explicit path must exist unless optional.
func loadSettings(v *viper.Viper, path string, optional bool) (Settings, error) {
	defaults, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("database", defaults.Database)
	v.SetConfigType(configFileType)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := defaultConfigDir()
		if err != nil {
			return Settings{}, err
		}
		v.SetConfigName(configFileName)
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path == "" && errors.As(err, &notFound):
		case path != "" && optional && errors.Is(err, fs.ErrNotExist):
		default:
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	settings := Settings{
		Host:               v.GetString("host"),
		Port:               uint16(v.GetUint("port")),
		TLS:                v.GetBool("tls"),
		Username:           v.GetString("username"),
		Password:           v.GetString("password"),
		Timeout:            v.GetString("timeout"),
		Proxy:              v.GetString("proxy"),
		InsecureSkipVerify: v.GetBool("insecure_skip_verify"),
		Database:           v.GetString("database"),
	}
	return settings, nil
}

// writeSettings writes settings to path as TOML, creating the directory.
func writeSettings(path string, settings Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
