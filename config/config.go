// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package config loads platform configuration from a YAML file with
// environment-variable expansion. Every setting has a safe default so a
// bare self-hosted deployment starts with no config file at all.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"tracelens/platform/shared/types"
)

// Config is the root configuration
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Deployment      DeploymentConfig      `yaml:"deployment"`
	AnalyticalStore AnalyticalStoreConfig `yaml:"analytical_store"`
	SearchStore     SearchStoreConfig     `yaml:"search_store"`
	Relational      RelationalConfig      `yaml:"relational"`
	Redis           RedisConfig           `yaml:"redis"`
	Redaction       RedactionConfig       `yaml:"redaction"`
	License         LicenseConfig         `yaml:"license"`
	Archive         ArchiveConfig         `yaml:"archive"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DeploymentConfig distinguishes cloud from self-hosted installs
type DeploymentConfig struct {
	Mode       string `yaml:"mode"`
	Production bool   `yaml:"production"`
}

// AnalyticalStoreConfig points at the columnar store backing the
// projections. URL format: cassandra://host1:port,host2:port/keyspace.
type AnalyticalStoreConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ConnectionURL string `yaml:"connection_url"`
}

// SearchStoreConfig points at the document store used as the usage
// counting fallback
type SearchStoreConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RelationalConfig points at the Postgres tenant/override store
type RelationalConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig points at the shared usage cache. An empty addr selects
// the in-process cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedactionConfig controls the PII detector
type RedactionConfig struct {
	Disabled bool   `yaml:"disabled"`
	Endpoint string `yaml:"endpoint"`
}

// LicenseConfig holds the license override token and its verification
// secret
type LicenseConfig struct {
	Token  string `yaml:"token"`
	Secret string `yaml:"secret"`
}

// ArchiveConfig holds the raw-span archive settings. An empty bucket
// disables archiving.
type ArchiveConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// Default returns the configuration a bare deployment runs with
func Default() *Config {
	return &Config{
		Server:      ServerConfig{ListenAddr: ":8091"},
		Deployment:  DeploymentConfig{Mode: types.DeploymentModeSelfHosted.String()},
		SearchStore: SearchStoreConfig{Database: "tracelens"},
	}
}

// Load reads the YAML file at path, expands ${VAR} and $VAR references
// against the environment, and unmarshals over the defaults. A missing
// file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8091"
	}
	if cfg.Deployment.Mode == "" {
		cfg.Deployment.Mode = types.DeploymentModeSelfHosted.String()
	}
	if !types.DeploymentMode(cfg.Deployment.Mode).IsValid() {
		return nil, fmt.Errorf("invalid deployment mode %q (expected %q or %q)",
			cfg.Deployment.Mode, types.DeploymentModeCloud, types.DeploymentModeSelfHosted)
	}
	return cfg, nil
}

// DeploymentMode returns the parsed deployment mode
func (c *Config) DeploymentMode() types.DeploymentMode {
	return types.DeploymentMode(c.Deployment.Mode)
}

// ParseAnalyticalStoreURL parses an analytical store connection URL.
// Format: cassandra://host1:port,host2:port/keyspace
func ParseAnalyticalStoreURL(url string) ([]string, string, error) {
	url = strings.TrimPrefix(url, "cassandra://")

	parts := strings.Split(url, "/")
	if len(parts) != 2 {
		return nil, "", fmt.Errorf("invalid connection URL format (expected: cassandra://host:port/keyspace)")
	}

	hosts := strings.Split(parts[0], ",")
	keyspace := parts[1]
	if len(hosts) == 0 || hosts[0] == "" || keyspace == "" {
		return nil, "", fmt.Errorf("invalid connection URL: missing hosts or keyspace")
	}
	return hosts, keyspace, nil
}

var envVarRegex = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}|\$[A-Za-z_][A-Za-z0-9_]*`)

// expandEnvVars expands ${VAR_NAME} and $VAR_NAME references. Undefined
// variables expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}
		return os.Getenv(varName)
	})
}
