// Package config loads the bot configuration from environment variables.
// envconfig maps the environment onto the Config struct; the fixed pricing
// table is attached at load time so no component reads a global.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting of the application.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // filled from AdminIDsRaw

	// --- Persistence gateway (hosting-side DB proxy) ---
	ProxyURL    string `envconfig:"DB_PROXY_URL" required:"true"`
	ProxyAPIKey string `envconfig:"DB_PROXY_KEY" required:"true"`

	// --- Payment gateway (QRIS deposits) ---
	PaymentBaseURL string `envconfig:"PAYMENT_BASE_URL" required:"true"`
	PaymentAPIKey  string `envconfig:"PAYMENT_API_KEY" required:"true"`
	MerchantCode   string `envconfig:"MERCHANT_CODE" default:"LICBOT"`

	// --- Order lifecycle ---
	// A QR that is not paid within OrderTimeout expires and its message is
	// removed. Settlement is re-checked at most every PaymentCheckInterval.
	OrderTimeout         time.Duration `envconfig:"ORDER_TIMEOUT" default:"25m"`
	PaymentCheckInterval time.Duration `envconfig:"PAYMENT_CHECK_INTERVAL" default:"20s"`
	OrderPrefix          string        `envconfig:"ORDER_PREFIX" default:"ORD"`

	// --- Points ---
	RedeemPointsPerDay int `envconfig:"REDEEM_POINTS_PER_DAY" default:"12"`

	// --- Presentation ---
	WelcomeImageURL string `envconfig:"WELCOME_IMAGE" default:""`
	Timezone        string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// How many updates are processed in parallel; one goroutine per update
	// with no cap leaks memory under flood.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	// Argon2id hash consumed by /login. Empty disables the password gate and
	// leaves only the ID allowlist.
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" default:""`
	AdminSessionTTL   time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"24h"`

	// --- Housekeeping cron (strengthening; opportunistic tick always runs) ---
	CronTickEnabled bool   `envconfig:"CRON_TICK_ENABLED" default:"true"`
	CronTickSpec    string `envconfig:"CRON_TICK_SPEC" default:"@every 1m"`

	// --- Rate limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Fixed duration→price table, attached in Load.
	Prices PriceTable `envconfig:"-"`
}

// PriceTable maps license duration in days to the price in Rupiah.
// It is built once at startup and never mutated afterwards.
type PriceTable struct {
	prices    map[int]int64
	durations []int
}

// DefaultPrices returns the fixed pricing of the storefront.
func DefaultPrices() PriceTable {
	return NewPriceTable(map[int]int64{
		1:  15000,
		2:  30000,
		3:  40000,
		4:  50000,
		5:  60000,
		6:  70000,
		7:  80000,
		8:  90000,
		10: 100000,
		15: 150000,
		20: 180000,
		30: 250000,
	})
}

// NewPriceTable copies the given map so callers cannot mutate the table later.
func NewPriceTable(prices map[int]int64) PriceTable {
	cp := make(map[int]int64, len(prices))
	durations := make([]int, 0, len(prices))
	for d, p := range prices {
		cp[d] = p
		durations = append(durations, d)
	}
	sort.Ints(durations)
	return PriceTable{prices: cp, durations: durations}
}

// PriceFor returns the price for a duration and whether it is offered at all.
func (t PriceTable) PriceFor(days int) (int64, bool) {
	p, ok := t.prices[days]
	return p, ok
}

// Durations lists the offered durations in ascending order.
func (t PriceTable) Durations() []int {
	out := make([]int, len(t.durations))
	copy(out, t.durations)
	return out
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT must be > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS must be > 0")
	}
	if c.OrderTimeout <= 0 {
		return fmt.Errorf("ORDER_TIMEOUT must be > 0")
	}
	if c.PaymentCheckInterval <= 0 {
		return fmt.Errorf("PAYMENT_CHECK_INTERVAL must be > 0")
	}
	if c.RedeemPointsPerDay <= 0 {
		return fmt.Errorf("REDEEM_POINTS_PER_DAY must be > 0")
	}
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS is empty")
	}
	return nil
}

// Load reads the environment and returns a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids
	cfg.Prices = DefaultPrices()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdmin reports whether the chat belongs to the admin allowlist.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
