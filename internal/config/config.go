package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	LLM struct {
		Token string `yaml:"token"`
		Model string `yaml:"model"`
	} `yaml:"llm"`
	Quiz struct {
		ChannelID        string   `yaml:"channel_id"`
		AccessCode       string   `yaml:"access_code"`
		Admins           []string `yaml:"admins"`
		PollDuration     string   `yaml:"poll_duration"`
		QuestionInterval string   `yaml:"question_interval"`
		BatchPause       string   `yaml:"batch_pause"`
		BankTTL          string   `yaml:"bank_ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
