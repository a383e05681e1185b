// Package api provides the HTTP API for the validation engine
package api

import (
	"context"

	"cleanse/internal/adapters/dns"
	"cleanse/internal/adapters/geocoder"
	"cleanse/internal/adapters/verifier"
	"cleanse/internal/core/refdata"
	"cleanse/internal/platform/config"
	"cleanse/internal/platform/logger"
	phttp "cleanse/internal/platform/net/http"
	"cleanse/internal/platform/store"

	"cleanse/internal/modkit"
	"cleanse/internal/modkit/httpkit"
	"cleanse/internal/modkit/module"

	addrdomain "cleanse/internal/services/address/domain"
	addrmod "cleanse/internal/services/address/module"
	checkshttp "cleanse/internal/services/api/checks/http"
	checksmod "cleanse/internal/services/api/checks/module"
	auditmod "cleanse/internal/services/audit/module"
	"cleanse/internal/services/batch"
	emaildomain "cleanse/internal/services/email/domain"
	emailmod "cleanse/internal/services/email/module"
	namedomain "cleanse/internal/services/name/domain"
	namemod "cleanse/internal/services/name/module"
	phonemod "cleanse/internal/services/phone/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger

	// RefLoader sources reference tables; nil means embedded defaults
	RefLoader refdata.LoaderPort
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	ref := refdata.Open(context.Background(), opt.RefLoader)

	// provider adapters; both are optional and degrade to local checks
	var ver verifier.Port
	if vcfg := verifier.FromConfig(opt.Config); vcfg.Enabled {
		ver = verifier.New(vcfg, nil)
	}
	var geo geocoder.Port
	if gcfg := geocoder.FromConfig(opt.Config); gcfg.Enabled {
		geo = geocoder.New(gcfg, nil)
	}
	mx := dns.New(nil, dns.DefaultConfig())

	emailModule := emailmod.New(deps, emailmod.Options{}, modkit.WithPorts(emaildomain.Ports{
		Ref:      ref,
		Verifier: ver,
		MX:       mx,
	}))
	phoneModule := phonemod.New(deps, phonemod.Options{})
	addrModule := addrmod.New(deps, addrmod.Options{}, modkit.WithPorts(addrdomain.Ports{
		Ref: ref,
		Geo: geo,
	}))
	nameModule := namemod.New(deps, namemod.Options{}, modkit.WithPorts(namedomain.Ports{
		Ref: ref,
	}))
	auditModule := auditmod.New(deps)

	h := &checkshttp.Handlers{
		Email:    module.MustPortsOf[emailmod.Ports](emailModule).Validator,
		Phone:    module.MustPortsOf[phonemod.Ports](phoneModule).Validator,
		Address:  module.MustPortsOf[addrmod.Ports](addrModule).Validator,
		Name:     module.MustPortsOf[namemod.Ports](nameModule).Validator,
		Verifier: ver,
		Geo:      geo,
		Sink:     module.MustPortsOf[auditmod.Ports](auditModule).Sink,
		Batch:    batch.FromConfig(opt.Config),
	}
	checks := checksmod.New(deps, h)

	mods := []module.Module{
		emailModule,
		phoneModule,
		addrModule,
		nameModule,
		auditModule,
		checks,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
		}
		checks.MountRoutes(api)
	})

	// readiness outside the versioned prefix
	phttp.GetJSON(r, "/healthz", h.Health)
}
