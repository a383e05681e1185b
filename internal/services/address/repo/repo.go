// Package repo provides the address result cache repository
package repo

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"

	"cleanse/internal/core/verdict"
	"cleanse/internal/modkit/repokit"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/store"
	"cleanse/internal/services/address/domain"

	"github.com/jackc/pgx/v5"
)

// binder implements repokit.Binder[domain.CacheRepo]
type binder struct{}

// NewPG returns a Postgres binder for domain.CacheRepo
func NewPG() repokit.Binder[domain.CacheRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.CacheRepo { return &pgrepo{q: q} }

type pgrepo struct{ q repokit.Queryer }

// Get returns the cached result for a composite component key, NotFound on miss
func (r *pgrepo) Get(ctx context.Context, key string) (*verdict.Result, error) {
	const q = `SELECT result FROM address_check_cache WHERE cache_key = $1`

	raw, err := store.Scalar[[]byte](ctx, r.q, q, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, stdsql.ErrNoRows) {
			return nil, perr.NotFoundf("address cache miss")
		}
		return nil, perr.FromPostgres(err, "address cache get")
	}

	var res verdict.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "address cache decode")
	}
	return &res, nil
}

// Put stores a result; duplicate-key races are benign and swallowed
func (r *pgrepo) Put(ctx context.Context, key string, res *verdict.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "address cache encode")
	}

	const q = `
		INSERT INTO address_check_cache (cache_key, result)
		VALUES ($1, $2)
		ON CONFLICT (cache_key) DO NOTHING`
	if _, err := r.q.Exec(ctx, q, key, raw); err != nil {
		return perr.FromPostgres(err, "address cache put")
	}
	return nil
}
