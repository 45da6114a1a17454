package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = "5000"
	DefaultDownloadFolder = "downloads"
	DefaultRapidAPIHost   = "youtube-to-mp315.p.rapidapi.com"
	DefaultTrackDelay     = time.Second
	DefaultRequestTimeout = 120 * time.Second
	DefaultHistoryLimit   = 500
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Server   ServerConfig   `yaml:"server"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	RapidAPI RapidAPIConfig `yaml:"rapidapi"`
	Download DownloadConfig `yaml:"download"`
	Storage  StorageConfig  `yaml:"storage"`
	History  HistoryConfig  `yaml:"history"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	GinMode     string   `yaml:"gin_mode"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key"`
}

type RapidAPIConfig struct {
	Key  string `yaml:"key"`
	Host string `yaml:"host"`
}

type DownloadConfig struct {
	// Pause between tracks to stay under upstream rate limits
	TrackDelay     time.Duration `yaml:"track_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// GCS options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type HistoryConfig struct {
	// Type of history store: "memory" or "redis"
	Type          string `yaml:"type"`
	Limit         int    `yaml:"limit"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and fills in defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	applyEnv(config)
	applyDefaults(config)

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == "" {
		config.Server.Port = DefaultPort
	}

	if len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if config.RapidAPI.Host == "" {
		config.RapidAPI.Host = DefaultRapidAPIHost
	}

	// A negative delay disables the pause entirely
	if config.Download.TrackDelay < 0 {
		config.Download.TrackDelay = 0
	} else if config.Download.TrackDelay == 0 {
		config.Download.TrackDelay = DefaultTrackDelay
	}

	if config.Download.RequestTimeout <= 0 {
		config.Download.RequestTimeout = DefaultRequestTimeout
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "local"
	}

	if config.Storage.OutputDir == "" {
		config.Storage.OutputDir = DefaultDownloadFolder
	}

	if config.History.Type == "" {
		config.History.Type = "memory"
	}

	if config.History.Limit <= 0 {
		config.History.Limit = DefaultHistoryLimit
	}
}
