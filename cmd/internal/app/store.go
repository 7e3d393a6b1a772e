package app

import (
	"context"

	"warden/cmd/internal/kv"
)

// newKVStore decides between Redis-backed session state and an in-process
// map. The in-process store is for development only: every session, pending
// registration, and CSRF token dies with the process.
func newKVStore(ctx context.Context, cfg Config, log Logger) (kv.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn("kv.disabled.inmemory_store")
		return kv.NewMemory(), func() {}, nil
	}

	r, err := kv.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("kv.enabled.redis_store")
	return r, func() { _ = r.Close() }, nil
}
