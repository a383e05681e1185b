package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"cleanse/internal/adapters/dns"
	"cleanse/internal/adapters/geocoder"
	"cleanse/internal/adapters/verifier"
	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
	"cleanse/internal/modkit"
	"cleanse/internal/modkit/module"
	"cleanse/internal/platform/config"
	"cleanse/internal/platform/logger"
	"cleanse/internal/platform/store"

	addrdomain "cleanse/internal/services/address/domain"
	addrmod "cleanse/internal/services/address/module"
	auditmod "cleanse/internal/services/audit/module"
	"cleanse/internal/services/batch"
	emaildomain "cleanse/internal/services/email/domain"
	emailmod "cleanse/internal/services/email/module"
	namedomain "cleanse/internal/services/name/domain"
	namemod "cleanse/internal/services/name/module"
	phonedomain "cleanse/internal/services/phone/domain"
	phonemod "cleanse/internal/services/phone/module"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	var (
		fField    = flag.String("field", "", "field type to validate: email | phone | address | name")
		fIn       = flag.String("in", "-", "input file with one value per line, - for stdin")
		fOut      = flag.String("out", "-", "output file for JSON-lines outcomes, - for stdout")
		fWorkers  = flag.Int("workers", 0, "concurrency override, 0 uses CORE_BATCH_CONCURRENCY")
		fDelay    = flag.Duration("delay", 0, "pause between chunks, e.g. 250ms")
		fContinue = flag.Bool("continue", true, "keep going after per-item failures")
	)
	flag.Parse()

	switch *fField {
	case "email", "phone", "address", "name":
	default:
		l.Panic().Str("field", *fField).Msg("must provide -field email|phone|address|name")
	}

	stCfg := store.Config{AppName: "cleanse"}
	if pgCfg.MayBool("ENABLED", false) {
		stCfg.PG = store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		}
	}
	if chCfg.MayBool("ENABLED", false) {
		stCfg.CH = store.CHConfig{
			Enabled: true,
			URL:     chCfg.MustString("DBURL"),
		}
	}

	st, err := store.Open(context.Background(), stCfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}
	ref := refdata.Open(context.Background(), nil)

	var ver verifier.Port
	if vcfg := verifier.FromConfig(root); vcfg.Enabled {
		ver = verifier.New(vcfg, nil)
	}
	var geo geocoder.Port
	if gcfg := geocoder.FromConfig(root); gcfg.Enabled {
		geo = geocoder.New(gcfg, nil)
	}
	mx := dns.New(nil, dns.DefaultConfig())

	em := emailmod.New(deps, emailmod.Options{}, modkit.WithPorts(emaildomain.Ports{Ref: ref, Verifier: ver, MX: mx}))
	ph := phonemod.New(deps, phonemod.Options{})
	ad := addrmod.New(deps, addrmod.Options{}, modkit.WithPorts(addrdomain.Ports{Ref: ref, Geo: geo}))
	nm := namemod.New(deps, namemod.Options{}, modkit.WithPorts(namedomain.Ports{Ref: ref}))
	au := auditmod.New(deps)
	for _, m := range []module.Module{em, ph, ad, nm, au} {
		module.Register(m.Name(), m.Ports())
	}
	sink := module.MustPortsOf[auditmod.Ports](au).Sink

	items, err := readLines(*fIn)
	if err != nil {
		l.Panic().Err(err).Str("in", *fIn).Msg("reading input failed")
	}
	if len(items) == 0 {
		l.Info().Msg("no input items")
		return
	}

	cfg := batch.FromConfig(root)
	if *fWorkers > 0 {
		cfg.Concurrency = *fWorkers
	}
	if *fDelay > 0 {
		cfg.Delay = *fDelay
	}
	cfg.ContinueOnError = *fContinue

	ctx := context.Background()
	field := *fField
	fn := func(ctx context.Context, i int) (*verdict.Result, error) {
		var res *verdict.Result
		var err error
		switch field {
		case "email":
			p := module.MustPortsOf[emailmod.Ports](em)
			res, err = p.Validator.Validate(ctx, emaildomain.Input{Email: items[i]})
		case "phone":
			p := module.MustPortsOf[phonemod.Ports](ph)
			res, err = p.Validator.Validate(ctx, phonedomain.Input{Phone: items[i]})
		case "address":
			p := module.MustPortsOf[addrmod.Ports](ad)
			res, err = p.Validator.Validate(ctx, addrdomain.Input{Address: items[i]})
		case "name":
			p := module.MustPortsOf[namemod.Ports](nm)
			res, err = p.Validator.Validate(ctx, namedomain.Input{Name: items[i]})
		}
		if err == nil {
			auditmod.Record(ctx, sink, field, res)
		}
		return res, err
	}

	started := time.Now()
	out, err := batch.Run(ctx, len(items), cfg, fn)
	if err != nil {
		l.Error().Err(err).Int("done", len(out)).Msg("batch aborted")
	}

	if werr := writeOutcomes(*fOut, out); werr != nil {
		l.Panic().Err(werr).Str("out", *fOut).Msg("writing outcomes failed")
	}

	ok := 0
	for _, o := range out {
		if o.Err == "" {
			ok++
		}
	}
	l.Info().
		Str("field", field).
		Int("items", len(items)).
		Int("ok", ok).
		Int("failed", len(out)-ok).
		Dur("elapsed", time.Since(started)).
		Msg("batch complete")

	if err != nil {
		os.Exit(1)
	}
}

// readLines loads non-empty lines from path, - meaning stdin
func readLines(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// writeOutcomes emits one JSON object per line, - meaning stdout
func writeOutcomes(path string, out []batch.Outcome) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	for _, o := range out {
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}
