package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bridge. It is read
// once at startup and treated as an immutable snapshot afterwards.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Dolibarr     DolibarrConfig
	Kobo         KoboConfig
	Geocode      GeocodeConfig
	Run          RunConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DolibarrConfig holds the ticketing/CRM API connection values.
type DolibarrConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// KoboConfig holds the survey-results API connection values. Token and
// AssetUID are only required when the batch-pull route is used.
type KoboConfig struct {
	BaseURL  string
	Token    string
	AssetUID string
	PageSize int
}

// GeocodeConfig selects and configures the reverse-geocoding provider.
type GeocodeConfig struct {
	Provider       string
	GoogleAPIKey   string
	NominatimEmail string
	NominatimURL   string
	TimeoutSeconds int
}

// RunConfig tunes the reconciliation run itself.
type RunConfig struct {
	CloseStatus            int
	StepwiseClose          bool
	DefaultTZOffsetMinutes *int
	PageSize               int
	TicketMaxPages         int
	DirectoryMaxPages      int
	ExtraFieldStart        string
	ExtraFieldEnd          string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// NotificationConfig holds the optional outcome webhook endpoint.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "kobo-dolibarr-bridge"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Dolibarr: DolibarrConfig{
			BaseURL:        os.Getenv("DOLIBARR_API_URL"),
			APIKey:         os.Getenv("DOLIBARR_API_KEY"),
			TimeoutSeconds: getEnvAsInt("OUTBOUND_TIMEOUT_SECONDS", 50),
		},
		Kobo: KoboConfig{
			BaseURL:  getEnv("KOBO_API_URL", "https://kf.kobotoolbox.org"),
			Token:    os.Getenv("KOBO_TOKEN"),
			AssetUID: os.Getenv("KOBO_ASSET_UID"),
			PageSize: getEnvAsInt("KOBO_PAGE_SIZE", 100),
		},
		Geocode: GeocodeConfig{
			Provider:       getEnv("GEOCODE_PROVIDER", "nominatim"),
			GoogleAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
			NominatimEmail: getEnv("NOMINATIM_EMAIL", "no-reply@example.com"),
			NominatimURL:   getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			TimeoutSeconds: getEnvAsInt("GEOCODE_TIMEOUT_SECONDS", 10),
		},
		Run: RunConfig{
			CloseStatus:       getEnvAsInt("DOLIBARR_CLOSE_STATUS", 8),
			StepwiseClose:     getEnvAsBool("DOLIBARR_STEPWISE_CLOSE", true),
			PageSize:          getEnvAsInt("FINDER_PAGE_SIZE", 50),
			TicketMaxPages:    getEnvAsInt("FINDER_TICKET_MAX_PAGES", 500),
			DirectoryMaxPages: getEnvAsInt("FINDER_DIRECTORY_MAX_PAGES", 300),
			ExtraFieldStart:   getEnv("DOLIBARR_EXTRAFIELD_START", "options_hora_inicio"),
			ExtraFieldEnd:     getEnv("DOLIBARR_EXTRAFIELD_END", "options_hora_fin"),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if raw := os.Getenv("DEFAULT_TZ_OFFSET_MINUTES"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_TZ_OFFSET_MINUTES: %w", err)
		}
		cfg.Run.DefaultTZOffsetMinutes = &offset
	}

	return cfg, nil
}

// Validate checks required credentials. A missing one is startup-fatal;
// the process must not come up half-configured.
func (c *Config) Validate() error {
	if c.Dolibarr.BaseURL == "" {
		return fmt.Errorf("DOLIBARR_API_URL is required")
	}
	if c.Dolibarr.APIKey == "" {
		return fmt.Errorf("DOLIBARR_API_KEY is required")
	}
	switch c.Geocode.Provider {
	case "nominatim", "google":
	default:
		return fmt.Errorf("unknown GEOCODE_PROVIDER %q", c.Geocode.Provider)
	}
	if c.Geocode.Provider == "google" && c.Geocode.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_MAPS_API_KEY is required when GEOCODE_PROVIDER=google")
	}
	return nil
}

// BatchPullEnabled reports whether the survey-results listing API is
// configured, which gates the batch run route.
func (c *Config) BatchPullEnabled() bool {
	return c.Kobo.Token != "" && c.Kobo.AssetUID != ""
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the outbound call timeout.
func (d DolibarrConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
