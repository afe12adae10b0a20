// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Upstream defaults point at the agency's published locations. The file URL
// doubles as a fallback when index-page discovery finds nothing newer.
const (
	defaultPageURL = "https://www.gov.br/anp/pt-br/assuntos/precos-e-defesa-da-concorrencia/" +
		"precos/precos-revenda-e-de-distribuicao-combustiveis/" +
		"levantamento-de-precos-de-combustiveis-ultimas-semanas-pesquisadas"
	defaultFileBaseURL = "https://www.gov.br/anp/pt-br/assuntos/precos-e-defesa-da-concorrencia/" +
		"precos/arquivos-lpc/semanal"
	defaultFileURL = defaultFileBaseURL + "/resumo_semanal_municipios_2023_a_2026.xlsx"

	// The host rejects bare bot agents, so the default claims a browser.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Report   ReportConfig   `mapstructure:"report"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig points at the agency's publication endpoints.
type UpstreamConfig struct {
	PageURL     string `mapstructure:"page_url"`
	FileURL     string `mapstructure:"file_url"`
	FileBaseURL string `mapstructure:"file_base_url"`
	Discover    bool   `mapstructure:"discover"`
	UserAgent   string `mapstructure:"user_agent"`
}

// HTTPConfig bounds the two outbound fetches. The workbook download gets a
// larger budget than the index page.
type HTTPConfig struct {
	PageTimeoutSeconds int `mapstructure:"page_timeout_seconds"`
	FileTimeoutSeconds int `mapstructure:"file_timeout_seconds"`
}

// ReportConfig pins the workbook layout and the municipality served.
type ReportConfig struct {
	HeaderRow    int    `mapstructure:"header_row"`
	Municipality string `mapstructure:"municipality"`
}

// CacheConfig drives both the Cache-Control headers and the in-process
// result cache. The refresh hour is expressed in the configured timezone.
type CacheConfig struct {
	RefreshHour                 int    `mapstructure:"refresh_hour"`
	Timezone                    string `mapstructure:"timezone"`
	MinSeconds                  int    `mapstructure:"min_seconds"`
	MaxSeconds                  int    `mapstructure:"max_seconds"`
	StaleWhileRevalidateSeconds int    `mapstructure:"stale_while_revalidate_seconds"`
	Results                     bool   `mapstructure:"results"`
	Size                        int    `mapstructure:"size"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ANPGRU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.page_url", defaultPageURL)
	v.SetDefault("upstream.file_url", defaultFileURL)
	v.SetDefault("upstream.file_base_url", defaultFileBaseURL)
	v.SetDefault("upstream.discover", true)
	v.SetDefault("upstream.user_agent", defaultUserAgent)
	v.SetDefault("http.page_timeout_seconds", 25)
	v.SetDefault("http.file_timeout_seconds", 45)
	v.SetDefault("report.header_row", 11)
	v.SetDefault("report.municipality", "GUARULHOS")
	v.SetDefault("cache.refresh_hour", 7)
	v.SetDefault("cache.timezone", "America/Sao_Paulo")
	v.SetDefault("cache.min_seconds", 60)
	v.SetDefault("cache.max_seconds", 86400)
	v.SetDefault("cache.stale_while_revalidate_seconds", 600)
	v.SetDefault("cache.results", true)
	v.SetDefault("cache.size", 8)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.Discover && c.Upstream.PageURL == "" {
		return fmt.Errorf("upstream.page_url must be set when upstream.discover is on")
	}
	if !c.Upstream.Discover && c.Upstream.FileURL == "" {
		return fmt.Errorf("upstream.file_url must be set when upstream.discover is off")
	}
	if c.HTTP.PageTimeoutSeconds <= 0 {
		return fmt.Errorf("http.page_timeout_seconds must be > 0")
	}
	if c.HTTP.FileTimeoutSeconds <= 0 {
		return fmt.Errorf("http.file_timeout_seconds must be > 0")
	}
	if c.Report.HeaderRow < 0 {
		return fmt.Errorf("report.header_row must be >= 0")
	}
	if c.Report.Municipality == "" {
		return fmt.Errorf("report.municipality must be set")
	}
	if c.Cache.RefreshHour < 0 || c.Cache.RefreshHour > 23 {
		return fmt.Errorf("cache.refresh_hour must be between 0 and 23")
	}
	if c.Cache.MinSeconds <= 0 {
		return fmt.Errorf("cache.min_seconds must be > 0")
	}
	if c.Cache.MaxSeconds < c.Cache.MinSeconds {
		return fmt.Errorf("cache.max_seconds must be >= cache.min_seconds")
	}
	if c.Cache.Timezone != "" {
		if _, err := time.LoadLocation(c.Cache.Timezone); err != nil {
			return fmt.Errorf("cache.timezone: %w", err)
		}
	}
	if c.Cache.Results && c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be > 0 when cache.results is on")
	}
	return nil
}

// PageTimeout converts the index page budget into a duration.
func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.HTTP.PageTimeoutSeconds) * time.Second
}

// FileTimeout converts the workbook download budget into a duration.
func (c Config) FileTimeout() time.Duration {
	return time.Duration(c.HTTP.FileTimeoutSeconds) * time.Second
}

// RefreshLocation resolves the configured cache timezone. Validate has
// already vetted the zone name, so failures only happen on hosts with no
// zone database; UTC keeps the service running there.
func (c Config) RefreshLocation() *time.Location {
	if c.Cache.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Cache.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
