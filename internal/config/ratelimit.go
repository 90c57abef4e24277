package config

import (
	"os"
	"strconv"
	"time"
)

// LoginLimitConfig sets the three login counters.  Each dimension has a
// point budget, a window and a block duration applied once the budget is
// exceeded.
type LoginLimitConfig struct {
	Prefix string

	EmailPerDay int
	IPPerDay    int
	IPPer10Min  int

	DayWindow  time.Duration
	TenMinutes time.Duration
	Block      time.Duration
}

func LoadLoginLimitConfig() LoginLimitConfig {
	cfg := LoginLimitConfig{
		Prefix:      envStr("LOGIN_LIMIT_PREFIX", "auth-limiter"),
		EmailPerDay: envInt("MAXATTEMPTSPERDAYBYEMAIL", 15),
		IPPerDay:    envInt("MAXATTEMPTSPERDAYBYIP", 10),
		IPPer10Min:  envInt("MAXATTEMPTSBYIPINTENMINUTES", 10),
		DayWindow:   24 * time.Hour,
		TenMinutes:  10 * time.Minute,
		Block:       envDur("LOGIN_LIMIT_BLOCK", 24*time.Hour),
	}
	if cfg.EmailPerDay < 1 { cfg.EmailPerDay = 1 }
	if cfg.IPPerDay < 1 { cfg.IPPerDay = 1 }
	if cfg.IPPer10Min < 1 { cfg.IPPer10Min = 1 }
	return cfg
}

// RateLimitConfig drives the generic token bucket used to throttle
// endpoints that cost money or reach third parties (OTP delivery).
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 5),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Minute),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Capacity < 1 { def.Capacity = 1 }
	if def.RefillTokens < 1 { def.RefillTokens = 1 }
	if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL { def.TTL = minTTL }
	return def
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" { return d }
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON": return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF": return false
	}
	return d
}
func envInt(k string, d int) int {
	v := os.Getenv(k); if v == "" { return d }
	if n, err := strconv.Atoi(v); err == nil { return n }
	return d
}
func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k); if v == "" { return d }
	if dur, err := time.ParseDuration(v); err == nil { return dur }
	return d
}
