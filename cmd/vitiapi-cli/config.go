package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultURL     = "http://localhost:3040"
	defaultProfile = "default"
	envURL         = "VITIAPI_URL"
	envAPIKey      = "VITIAPI_API_KEY"
)

// configFile is ~/.vitiapi/config.yaml. The flat url/api_key fields are
// read when no profile matches.
type configFile struct {
	URL           string                   `yaml:"url,omitempty"`
	APIKey        string                   `yaml:"api_key,omitempty"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vitiapi", "config.yaml"), nil
}

func loadConfigFile() (string, *configFile, error) {
	cfgPath, err := configPath()
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfgPath, nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfgPath, nil, err
	}
	return cfgPath, &cfg, nil
}

// activeProfile returns the URL and key of the active profile, falling back
// to the flat fields.
func (c *configFile) activeProfile() (url, apiKey string) {
	url, apiKey = c.URL, c.APIKey
	name := c.ActiveProfile
	if name == "" {
		name = defaultProfile
	}
	if p, ok := c.Profiles[name]; ok {
		if p.URL != "" {
			url = p.URL
		}
		if p.APIKey != "" {
			apiKey = p.APIKey
		}
	}
	return url, apiKey
}

// resolveSettings applies flag, then env, then config file precedence.
func resolveSettings(url, apiKey string, cfg *configFile) (string, string) {
	if url == defaultURL {
		if v := os.Getenv(envURL); v != "" {
			url = v
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if cfg == nil {
		return url, apiKey
	}
	fileURL, fileKey := cfg.activeProfile()
	if url == defaultURL && fileURL != "" {
		url = fileURL
	}
	if apiKey == "" && fileKey != "" {
		apiKey = fileKey
	}
	return url, apiKey
}

func resolveConfig() {
	_, cfg, _ := loadConfigFile() //nolint:errcheck // a missing or broken file leaves flags and env in charge.
	flagURL, flagKey = resolveSettings(flagURL, flagKey, cfg)
}

// saveProfile stores url and apiKey in the active profile, keeping other profiles.
func saveProfile(url, apiKey string) (string, error) {
	cfgPath, cfg, err := loadConfigFile()
	if cfgPath == "" {
		return "", err
	}
	if cfg == nil {
		cfg = &configFile{}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]configProfile{}
	}
	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = defaultProfile
	}
	cfg.Profiles[cfg.ActiveProfile] = configProfile{URL: url, APIKey: apiKey}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", err
	}
	return cfgPath, nil
}
