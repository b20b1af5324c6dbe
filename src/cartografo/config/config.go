// Package config loads service configuration from the settings table with
// environment fallbacks, matching how the rest of the stack is configured.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/shared/data"
)

// Base contains the fields every service needs.
type Base struct {
	MySQLDSN string
	RedisURL string
}

// Crawl is the discovery service configuration.
type Crawl struct {
	Base

	YouTubeAPIKey string

	DailyLimit    int
	SafetyBuffer  int
	WarnThreshold float64

	MinSubscribers  int64
	MinCertainty    int
	AcceptThreshold int

	PageCacheTTL time.Duration

	DiscordToken   string
	DiscordChannel string
}

// Atlas is the query API configuration.
type Atlas struct {
	Base
	Port        string
	CORSOrigins []string
}

// LoadBase loads common configuration. Settings win over env vars.
func LoadBase(db *gorm.DB) Base {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			// Env fallbacks still work.
		}
	}
	return Base{
		MySQLDSN: data.GetMySQLDSN(),
		RedisURL: GetSetting("redis_url", "REDIS_URL", "redis://localhost:6379/0"),
	}
}

// LoadCrawl loads the full discovery configuration.
func LoadCrawl(db *gorm.DB) Crawl {
	return Crawl{
		Base: LoadBase(db),

		YouTubeAPIKey: GetSetting("youtube_api_key", "YOUTUBE_API_KEY", ""),

		DailyLimit:    GetInt("daily_quota_limit", "DAILY_QUOTA_LIMIT", 10000),
		SafetyBuffer:  GetInt("quota_safety_buffer", "QUOTA_SAFETY_BUFFER", 500),
		WarnThreshold: GetFloat("quota_warn_threshold", "QUOTA_WARN_THRESHOLD", 0.8),

		MinSubscribers:  int64(GetInt("min_subscribers", "MIN_SUBSCRIBERS", 500)),
		MinCertainty:    GetInt("min_certainty", "MIN_CERTAINTY", 70),
		AcceptThreshold: GetInt("accept_threshold", "ACCEPT_THRESHOLD", 75),

		PageCacheTTL: time.Duration(GetInt("page_cache_ttl_hours", "PAGE_CACHE_TTL_HOURS", 24)) * time.Hour,

		DiscordToken:   GetSetting("discord_token", "DISCORD_TOKEN", ""),
		DiscordChannel: GetSetting("discord_channel_id", "DISCORD_CHANNEL_ID", ""),
	}
}

// LoadAtlas loads the query API configuration.
func LoadAtlas(db *gorm.DB) Atlas {
	origins := strings.Split(GetSetting("cors_origins", "CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Atlas{
		Base:        LoadBase(db),
		Port:        GetSetting("atlas_port", "ATLAS_PORT", "8080"),
		CORSOrigins: origins,
	}
}

// GetSetting retrieves a setting with env fallback.
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

// GetInt retrieves an integer setting with env fallback.
func GetInt(name, envKey string, defaultValue int) int {
	val := GetSetting(name, envKey, "")
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetFloat retrieves a float setting with env fallback.
func GetFloat(name, envKey string, defaultValue float64) float64 {
	val := GetSetting(name, envKey, "")
	if val == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
