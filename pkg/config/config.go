// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Marketplace open-platform endpoint. All outbound calls use this base;
	// if ProxyURL is set every call is routed through it unconditionally.
	MarketplaceBaseURL string
	ProxyURL           string

	// Default signing identity, used when a shop has no identity of its own.
	DefaultPartnerID  int64
	DefaultPartnerKey string

	// Token refresh happens once the stored token is within RefreshBuffer
	// of its expiry.
	RefreshBuffer time.Duration

	// Fixed scheduling timezone. Rule windows are evaluated in this zone no
	// matter where the cron trigger originates.
	ScheduleTZ string

	// Outbound call timeout and the pause between dispatching successive
	// shops within one pass (rate-limit courtesy).
	HTTPTimeout time.Duration
	ShopDelay   time.Duration

	// Shared secret the cron trigger must present for process/run-now.
	CronSecret string

	// Admin bearer validation for maintenance actions.
	AdminJWKSURL  string
	AdminIssuer   string
	AdminAudience string

	// Optional YAML rule seed loaded once at startup.
	RuleSeedPath string

	// Postgres & Redis
	DatabaseURL string
	RedisURL    string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                env("PACER_ENV", "dev"),
		HTTPAddr:           env("PACER_HTTP_ADDR", ":8080"),
		MarketplaceBaseURL: env("MARKETPLACE_BASE_URL", "https://partner.shopeemobile.com"),
		ProxyURL:           env("MARKETPLACE_PROXY_URL", ""),
		DefaultPartnerID:   envInt64("PARTNER_ID", 0),
		DefaultPartnerKey:  env("PARTNER_KEY", ""),
		RefreshBuffer:      envDur("TOKEN_REFRESH_BUFFER_SEC", 300) * time.Second,
		ScheduleTZ:         env("SCHEDULE_TZ", "Asia/Ho_Chi_Minh"),
		HTTPTimeout:        envDur("MARKETPLACE_TIMEOUT_SEC", 30) * time.Second,
		ShopDelay:          envDur("SHOP_DISPATCH_DELAY_MS", 200) * time.Millisecond,
		CronSecret:         env("CRON_SECRET", ""),
		AdminJWKSURL:       env("ADMIN_JWKS_URL", ""),
		AdminIssuer:        env("ADMIN_OIDC_ISSUER", ""),
		AdminAudience:      env("ADMIN_OIDC_AUDIENCE", "pacer-admin"),
		RuleSeedPath:       env("RULE_SEED_PATH", ""),
		DatabaseURL:        env("DATABASE_URL", ""),
		RedisURL:           env("REDIS_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory stores for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.ParseInt(v, 10, 64)
		return i
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
