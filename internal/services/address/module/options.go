package module

import "cleanse/internal/platform/config"

// Options holds configuration settings for the address module
type Options struct {
	DefaultCountry string
	Cache          bool

	set bool // overrides were provided explicitly
}

// Override marks o as a full replacement for env config
func Override(o Options) Options { o.set = true; return o }

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("CORE_ADDRESS_")
	return Options{
		DefaultCountry: pf.MayString("DEFAULT_COUNTRY", "US"),
		Cache:          pf.MayBool("CACHE", true),
	}
}
