package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const uiStateFile = "ui.yaml"

type uiConfig struct {
	Theme        string `yaml:"theme,omitempty"`
	LastResource string `yaml:"last_resource,omitempty"`
}

func loadUIConfig(configDir string) (*uiConfig, string) {
	path := filepath.Join(configDir, uiStateFile)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return &uiConfig{}, path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &uiConfig{}, path
	}
	var cfg uiConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &uiConfig{}, path
	}
	return &cfg, path
}

func saveUIConfig(cfg *uiConfig, path string) error {
	if cfg == nil {
		cfg = &uiConfig{}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
