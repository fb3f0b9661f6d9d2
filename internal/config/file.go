package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// FileOverrides is the TOML document accepted by the admin CLI's --config flag.
type FileOverrides struct {
	DatabaseURL string `toml:"database_url"`
	Env         string `toml:"env"`
	SMTP        struct {
		Host     string `toml:"host"`
		Port     string `toml:"port"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		From     string `toml:"from"`
	} `toml:"smtp"`
}

// ApplyFile decodes path and overrides the non-empty values it carries.
func (c *Config) ApplyFile(path string) error {
	var f FileOverrides
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if f.DatabaseURL != "" {
		c.DatabaseURL = f.DatabaseURL
	}
	if f.Env != "" {
		c.Env = f.Env
	}
	if f.SMTP.Host != "" {
		c.SMTP.Host = f.SMTP.Host
	}
	if f.SMTP.Port != "" {
		c.SMTP.Port = f.SMTP.Port
	}
	if f.SMTP.Username != "" {
		c.SMTP.Username = f.SMTP.Username
	}
	if f.SMTP.Password != "" {
		c.SMTP.Password = f.SMTP.Password
	}
	if f.SMTP.From != "" {
		c.SMTP.From = f.SMTP.From
	}
	return nil
}
