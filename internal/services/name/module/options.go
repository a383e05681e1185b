package module

import "cleanse/internal/platform/config"

// Options holds configuration settings for the name module
type Options struct {
	SecurityCheck    bool
	PlaceholderCheck bool

	set bool // overrides were provided explicitly
}

// Override marks o as a full replacement for env config
func Override(o Options) Options { o.set = true; return o }

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	nf := cfg.Prefix("CORE_NAME_")
	return Options{
		SecurityCheck:    nf.MayBool("SECURITY_CHECK", true),
		PlaceholderCheck: nf.MayBool("PLACEHOLDER_CHECK", true),
	}
}
