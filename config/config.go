// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	// DataForSEO credentials (required; the server refuses to start without them).
	DataForSEOLogin    string
	DataForSEOPassword string

	// Google Places key. Optional: without it only manual competitor mode works.
	GooglePlacesKey string

	SearchRadiusMiles float64
	CompetitorLimit   int

	// Upper bound on a single analysis run. The original design had no timeout
	// at all; we cap it so a hung provider cannot pin a goroutine forever, while
	// abandoned-but-polling-less jobs still run to completion.
	AnalysisTimeout time.Duration

	// When set, job state lives in Redis instead of process memory.
	RedisAddr     string
	RedisPassword string
}

func Load() Config {
	return Config{
		Port:               getenv("PORT", "3001"),
		GinMode:            os.Getenv("GIN_MODE"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		DataForSEOLogin:    os.Getenv("DATAFORSEO_LOGIN"),
		DataForSEOPassword: os.Getenv("DATAFORSEO_PASSWORD"),
		GooglePlacesKey:    os.Getenv("GOOGLE_PLACES_API_KEY"),
		SearchRadiusMiles:  getenvFloat("SEARCH_RADIUS_MILES", 15),
		CompetitorLimit:    getenvInt("COMPETITOR_LIMIT", 10),
		AnalysisTimeout:    getenvDuration("ANALYSIS_TIMEOUT", 5*time.Minute),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
