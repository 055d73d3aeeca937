// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds the server configuration
type Config struct {
	// Network configuration
	Bind         string
	Port         int
	Timeout      int // 0 = no timeout
	TCPKeepalive int

	// General configuration
	LogLevel  string
	LogFile   string
	Databases int

	// Limits configuration
	MaxClients       int64
	MaxMemory        int64
	MaxMemoryPolicy  string
	MaxMemorySamples int

	// Dict tuning (spec §4.2.1's two process-wide flags)
	DictResizeEnabled     bool
	DictForceResizeRatio  int
	DictHashSeedHex       string

	mu sync.RWMutex
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Bind:         "0.0.0.0",
		Port:         6379,
		Timeout:      0,
		TCPKeepalive: 300,

		LogLevel:  "notice",
		LogFile:   "",
		Databases: 16,

		MaxClients:       10000,
		MaxMemory:        0,
		MaxMemoryPolicy:  "noeviction",
		MaxMemorySamples: 5,

		DictResizeEnabled:    true,
		DictForceResizeRatio: 5,
		DictHashSeedHex:      "",
	}
}

// Global configuration instance
var globalConfig *Config
var once sync.Once

// Instance returns the global configuration instance
func Instance() *Config {
	once.Do(func() {
		globalConfig = Default()
	})
	return globalConfig
}

// ParseFlags parses command line flags
func (c *Config) ParseFlags() {
	configFile := flag.String("c", "", "Configuration file path")
	port := flag.Int("p", 0, "Server port")
	flag.Parse()

	if *port != 0 {
		c.Port = *port
	}
	if *configFile != "" {
		if err := c.LoadFile(*configFile); err != nil {
			fmt.Printf("Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// LoadFile loads configuration from a file
func (c *Config) LoadFile(filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return c.Parse(string(content))
}

// Parse parses configuration content
func (c *Config) Parse(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx > 0 {
			line = strings.TrimSpace(line[:idx])
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		key := strings.ToLower(parts[0])
		value := strings.Join(parts[1:], " ")

		if err := c.setConfig(key, value); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// setConfig sets a single configuration value
func (c *Config) setConfig(key, value string) error {
	switch key {
	case "bind":
		c.Bind = value
	case "port":
		p, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Port = p
	case "timeout":
		t, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Timeout = t
	case "tcp-keepalive":
		k, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.TCPKeepalive = k
	case "loglevel":
		c.LogLevel = strings.ToLower(value)
	case "logfile":
		c.LogFile = value
	case "databases":
		d, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Databases = d
	case "maxclients":
		m, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		c.MaxClients = m
	case "maxmemory":
		if value == "0" || value == "" {
			c.MaxMemory = 0
		} else {
			m, err := parseMemory(value)
			if err != nil {
				return err
			}
			c.MaxMemory = m
		}
	case "maxmemory-policy":
		c.MaxMemoryPolicy = strings.ToLower(value)
	case "maxmemory-samples":
		s, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.MaxMemorySamples = s
	case "dict-resize-enabled":
		c.DictResizeEnabled = strings.ToLower(value) == "yes"
	case "dict-force-resize-ratio":
		r, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.DictForceResizeRatio = r
	case "dict-hash-seed":
		if _, err := hex.DecodeString(value); err != nil {
			return fmt.Errorf("dict-hash-seed must be hex: %w", err)
		}
		c.DictHashSeedHex = value
	default:
		// Unknown config key, ignore
	}
	return nil
}

// parseMemory parses memory size strings like "1gb", "500mb", etc.
func parseMemory(s string) (int64, error) {
	s = strings.ToLower(s)
	multiplier := int64(1)
	if strings.HasSuffix(s, "gb") {
		multiplier = 1 << 30
		s = strings.TrimSuffix(s, "gb")
	} else if strings.HasSuffix(s, "mb") {
		multiplier = 1 << 20
		s = strings.TrimSuffix(s, "mb")
	} else if strings.HasSuffix(s, "kb") {
		multiplier = 1 << 10
		s = strings.TrimSuffix(s, "kb")
	}
	val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return val * multiplier, nil
}

// Get returns a configuration value by key (for CONFIG GET command)
func (c *Config) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch strings.ToLower(key) {
	case "bind":
		return c.Bind, true
	case "port":
		return strconv.Itoa(c.Port), true
	case "timeout":
		return strconv.Itoa(c.Timeout), true
	case "tcp-keepalive":
		return strconv.Itoa(c.TCPKeepalive), true
	case "loglevel":
		return c.LogLevel, true
	case "logfile":
		return c.LogFile, true
	case "databases":
		return strconv.Itoa(c.Databases), true
	case "maxclients":
		return strconv.FormatInt(c.MaxClients, 10), true
	case "maxmemory":
		return strconv.FormatInt(c.MaxMemory, 10), true
	case "maxmemory-policy":
		return c.MaxMemoryPolicy, true
	case "maxmemory-samples":
		return strconv.Itoa(c.MaxMemorySamples), true
	case "dict-resize-enabled":
		return boolToStr(c.DictResizeEnabled), true
	case "dict-force-resize-ratio":
		return strconv.Itoa(c.DictForceResizeRatio), true
	case "dict-hash-seed":
		return c.DictHashSeedHex, true
	default:
		return "", false
	}
}

// Set sets a configuration value by key (for CONFIG SET command)
func (c *Config) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setConfig(key, value)
}

// boolToStr converts boolean to "yes" or "no"
func boolToStr(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// IsDebugEnabled returns true if log level is debug
func (c *Config) IsDebugEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LogLevel == "debug"
}

// IsVerboseEnabled returns true if log level is verbose or debug
func (c *Config) IsVerboseEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LogLevel == "verbose" || c.LogLevel == "debug"
}

// GetAddr returns the network address to bind to
func (c *Config) GetAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// HashSeed decodes the configured hex hash seed into 16 bytes, padding or
// truncating as needed. Returns false if none was configured.
func (c *Config) HashSeed() ([16]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var seed [16]byte
	if c.DictHashSeedHex == "" {
		return seed, false
	}
	raw, err := hex.DecodeString(c.DictHashSeedHex)
	if err != nil {
		return seed, false
	}
	copy(seed[:], raw)
	return seed, true
}
