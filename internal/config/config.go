package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	HTTPAddr    string
	DBDSN       string

	SourceCalendarID      string
	BookingCalendarID     string
	GoogleCredentialsFile string
	GoogleAPIKey          string // fallback transport; optional

	TZOffsetHours     int
	SlotDurationHours float64
	BusinessOpenHour  int
	BusinessCloseHour int
	MaxRangeDays      int
	LockWait          time.Duration

	// Query-complexity estimation and pagination tuning.
	AvgDailyEvents    float64
	BufferMultiplier  float64
	MaxEstimationDays int
	BasePageSize      int
	MinPageSize       int
	MaxPageSize       int

	ConfigCacheTTL time.Duration
	HandleCacheTTL time.Duration
	IndexCacheTTL  time.Duration

	TelegramToken     string
	TelegramAdminChat int64
}

func Load() (*Config, error) {
	// Load .env if present; environment variables win either way.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		Environment: envStr("ENV", "development"),
		HTTPAddr:    envStr("HTTP_ADDR", ":8080"),
		DBDSN:       os.Getenv("DB_DSN"),

		SourceCalendarID:      os.Getenv("SOURCE_CALENDAR_ID"),
		BookingCalendarID:     os.Getenv("BOOKING_CALENDAR_ID"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleAPIKey:          os.Getenv("GOOGLE_API_KEY"),

		TZOffsetHours:     envInt("TZ_OFFSET_HOURS", 8),
		SlotDurationHours: envFloat("SLOT_DURATION_HOURS", 1),
		BusinessOpenHour:  envInt("BUSINESS_OPEN_HOUR", 9),
		BusinessCloseHour: envInt("BUSINESS_CLOSE_HOUR", 21),
		MaxRangeDays:      envInt("MAX_RANGE_DAYS", 62),
		LockWait:          envSeconds("LOCK_WAIT_SECONDS", 30),

		AvgDailyEvents:    envFloat("AVG_DAILY_EVENTS", 3),
		BufferMultiplier:  envFloat("EVENT_BUFFER_MULTIPLIER", 1.5),
		MaxEstimationDays: envInt("MAX_ESTIMATION_DAYS", 90),
		BasePageSize:      envInt("BASE_PAGE_SIZE", 100),
		MinPageSize:       envInt("MIN_PAGE_SIZE", 25),
		MaxPageSize:       envInt("MAX_PAGE_SIZE", 250),

		ConfigCacheTTL: envSeconds("CONFIG_CACHE_TTL_SECONDS", 300),
		HandleCacheTTL: envSeconds("HANDLE_CACHE_TTL_SECONDS", 1800),
		IndexCacheTTL:  envSeconds("INDEX_CACHE_TTL_SECONDS", 600),

		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		TelegramAdminChat: envInt64("TELEGRAM_ADMIN_CHAT", 0),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.SourceCalendarID == "" {
		return nil, fmt.Errorf("SOURCE_CALENDAR_ID is required but not set")
	}
	if cfg.BookingCalendarID == "" {
		return nil, fmt.Errorf("BOOKING_CALENDAR_ID is required but not set")
	}
	if cfg.BusinessOpenHour < 0 || cfg.BusinessCloseHour > 24 || cfg.BusinessOpenHour >= cfg.BusinessCloseHour {
		return nil, fmt.Errorf("invalid business hours: %d-%d", cfg.BusinessOpenHour, cfg.BusinessCloseHour)
	}

	return cfg, nil
}

// Location returns the fixed zone all slot arithmetic happens in.
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TZOffsetHours), c.TZOffsetHours*3600)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using default %d", key, v, def)
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid %s=%q, using default %g", key, v, def)
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
