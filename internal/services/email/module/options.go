package module

import "cleanse/internal/platform/config"

// Options holds configuration settings for the email module
type Options struct {
	MXCheck     bool
	DidYouMean  bool
	PlusAliases bool
	Cache       bool

	set bool // overrides were provided explicitly
}

// Override marks o as a full replacement for env config
func Override(o Options) Options { o.set = true; return o }

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("CORE_EMAIL_")
	return Options{
		MXCheck:     pf.MayBool("MX_CHECK", true),
		DidYouMean:  pf.MayBool("DID_YOU_MEAN", true),
		PlusAliases: pf.MayBool("PLUS_ALIASES", true),
		Cache:       pf.MayBool("CACHE", true),
	}
}
