package worksheets

import (
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets/pdf"
	"github.com/spf13/pflag"
)

type AllFlags struct {
	ConfigFile string
	RenderOptions
	FetchOptions
	logger.Flags
}

type RenderOptions struct {
	Renderer string
	Locale   string
	Validate bool
}

type FetchOptions struct {
	Timeout  time.Duration
	CacheTTL time.Duration // Cache TTL for downloaded images
	NoCache  bool          // Disable caching (equivalent to --cache-ttl=0)
}

// GetEffectiveTTL returns the effective cache TTL considering the no-cache flag
func (f FetchOptions) GetEffectiveTTL() time.Duration {
	if f.NoCache {
		return 0
	}
	return f.CacheTTL
}

var Flags AllFlags = AllFlags{
	RenderOptions: RenderOptions{
		Renderer: string(pdf.KindFpdf),
		Validate: true,
	},
	FetchOptions: FetchOptions{
		Timeout: 15 * time.Second,
	},
	Flags: logger.Flags{
		Level:        "info",
		LevelCount:   0,
		JsonLogs:     false,
		ReportCaller: false,
		LogToStderr:  true,
	},
}

// BindAllFlags adds the logging, render and fetch flags to a pflag set (for Cobra)
func BindAllFlags(flags *pflag.FlagSet) AllFlags {
	flags.CountVarP(&Flags.Flags.LevelCount, "loglevel", "v", "Increase logging level")
	flags.StringVar(&Flags.Flags.Level, "log-level", "info", "Set the default log level")
	flags.BoolVar(&Flags.Flags.JsonLogs, "json-logs", false, "Print logs in json format to stderr")
	flags.BoolVar(&Flags.Flags.ReportCaller, "report-caller", false, "Report log caller info")
	flags.BoolVar(&Flags.Flags.LogToStderr, "log-to-stderr", true, "Log to stderr instead of stdout")

	flags.StringVarP(&Flags.ConfigFile, "config", "c", "", "YAML configuration file")

	flags.StringVar(&Flags.Renderer, "renderer", Flags.Renderer, "PDF renderer: fpdf, maroto")
	flags.StringVar(&Flags.Locale, "locale", "", "Label locale: pt-BR, en")
	flags.BoolVar(&Flags.Validate, "validate", Flags.Validate, "Validate generated PDFs with pdfcpu")

	flags.DurationVar(&Flags.Timeout, "fetch-timeout", Flags.Timeout, "Timeout for a single image download (0 = none)")
	flags.DurationVar(&Flags.CacheTTL, "cache-ttl", 0, "Cache TTL for downloaded images (0 = disabled)")
	flags.BoolVar(&Flags.NoCache, "no-cache", false, "Disable caching (equivalent to --cache-ttl=0)")

	return Flags
}

// Apply overrides config values with the flags that were set explicitly
func (a AllFlags) Apply(config *Config, set *pflag.FlagSet) {
	changed := func(name string) bool {
		return set != nil && set.Changed(name)
	}
	if changed("renderer") {
		config.Render.Renderer = pdf.Kind(a.Renderer)
	}
	if changed("locale") {
		config.Layout.Locale = a.Locale
	}
	if changed("validate") {
		config.Render.Validate = a.Validate
	}
	if changed("fetch-timeout") {
		config.Fetch.Timeout = a.Timeout
	}
	if changed("cache-ttl") || changed("no-cache") {
		config.Fetch.Cache.TTL = a.GetEffectiveTTL()
	}
}

// LoadConfig loads the --config file and applies the explicit flags on top
func (a AllFlags) LoadConfig(set *pflag.FlagSet) (Config, error) {
	config, err := LoadConfig(a.ConfigFile)
	if err != nil {
		return config, err
	}
	a.Apply(&config, set)
	return config, config.Validate()
}

func (a AllFlags) UseFlags() {
	logger.Configure(a.Flags)
	logger.Debugf("Using logger flags: level=%s json=%v", a.Flags.Level, a.Flags.JsonLogs)
}
