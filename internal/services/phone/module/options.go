package module

import "cleanse/internal/platform/config"

// Options holds configuration settings for the phone module
type Options struct {
	DefaultCountry    string
	FallbackCountries []string
	CacheEnabled      bool
	CacheMinLevel     string

	set bool // overrides were provided explicitly
}

// Override marks o as a full replacement for env config
func Override(o Options) Options { o.set = true; return o }

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("CORE_PHONE_")
	return Options{
		DefaultCountry:    pf.MayString("DEFAULT_COUNTRY", ""),
		FallbackCountries: pf.MayCSV("FALLBACK_COUNTRIES", []string{"US", "GB", "AU", "CA"}),
		CacheEnabled:      pf.MayBool("CACHE", true),
		CacheMinLevel:     pf.MayEnum("CACHE_MIN_LEVEL", "high", "medium", "high", "very_high"),
	}
}
