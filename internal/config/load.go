package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory and
// ConfigDir.
const FileName = "lodterrain.yaml"

// Load builds the configuration from defaults, the config file and args
// (normally os.Args[1:]), then validates it.
func Load(args []string) (*Config, error) {
	cfg := Default()

	f, err := parseFlags(args)
	if err != nil {
		return nil, err
	}

	path := f.configPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	for _, p := range []string{FileName, filepath.Join(ConfigDir(), FileName)} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "lodterrain")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lodterrain")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lodterrain")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lodterrain")
}

// loadFromFile merges a YAML file over cfg. Unknown keys are rejected.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return nil
}

// SaveTo writes cfg as YAML, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
