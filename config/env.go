package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides file values with whatever is set in the environment
func applyEnv(config *Config) {
	setString(&config.Server.Port, "SERVER_PORT")
	setString(&config.Server.GinMode, "GIN_MODE")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		config.Server.CORSOrigins = splitList(origins)
	}

	setString(&config.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&config.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&config.YouTube.APIKey, "YOUTUBE_API_KEY")
	setString(&config.RapidAPI.Key, "RAPIDAPI_KEY")
	setString(&config.RapidAPI.Host, "RAPIDAPI_HOST")

	setString(&config.Storage.Type, "STORAGE_TYPE")
	setString(&config.Storage.OutputDir, "DOWNLOAD_FOLDER")
	setString(&config.Storage.Bucket, "GCS_BUCKET")
	setString(&config.Storage.ObjectPrefix, "GCS_PREFIX")
	setString(&config.Storage.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	setString(&config.History.Type, "HISTORY_TYPE")
	setString(&config.History.RedisAddr, "REDIS_ADDR")
	setString(&config.History.RedisPassword, "REDIS_PASSWORD")
	setInt(&config.History.RedisDB, "REDIS_DB")

	setInt(&config.LogLevel, "LOG_LEVEL")
	setDuration(&config.Download.TrackDelay, "TRACK_DELAY")
	setDuration(&config.Download.RequestTimeout, "REQUEST_TIMEOUT")
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setDuration(target *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
