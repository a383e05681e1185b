package module

import (
	"context"

	"cleanse/internal/core/verdict"
	"cleanse/internal/modkit/repokit"
	"cleanse/internal/services/phone/domain"
	"cleanse/internal/services/phone/repo"
)

// txCache adapts the bound repo to a transaction per cache operation
type txCache struct {
	tx     repokit.TxRunner
	binder repokit.Binder[domain.CacheRepo]
}

func newTxCache(tx repokit.TxRunner) domain.CacheRepo {
	return &txCache{tx: tx, binder: repo.NewPG()}
}

func (c *txCache) Get(ctx context.Context, key string) (*verdict.Result, error) {
	var res *verdict.Result
	err := repokit.WithTx(ctx, c.tx, func(q repokit.Queryer) error {
		r, err := c.binder.Bind(q).Get(ctx, key)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *txCache) Put(ctx context.Context, key string, res *verdict.Result) error {
	return repokit.WithTx(ctx, c.tx, func(q repokit.Queryer) error {
		return c.binder.Bind(q).Put(ctx, key, res)
	})
}
