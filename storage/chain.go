package storage

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Chain reads from a primary store and falls back to a legacy store. A value
// found only in the legacy store is written to the primary store and removed
// from the legacy one, so each key migrates at most once, on first read.
type Chain struct {
	primary Store
	legacy  Store
}

var _ Store = (*Chain)(nil)

// NewChain returns a Chain. legacy may be nil, in which case the Chain is a
// plain pass-through to primary.
func NewChain(primary, legacy Store) *Chain {
	return &Chain{primary: primary, legacy: legacy}
}

func (c *Chain) Get(key string) (string, bool, error) {
	value, ok, err := c.primary.Get(key)
	if err != nil {
		return "", false, fmt.Errorf("[Chain.Get] primary %q: %w", key, err)
	}
	if ok || c.legacy == nil {
		return value, ok, nil
	}

	value, ok, err = c.legacy.Get(key)
	if err != nil {
		return "", false, fmt.Errorf("[Chain.Get] legacy %q: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}

	if err := c.primary.Set(key, value); err != nil {
		return "", false, fmt.Errorf("[Chain.Get] migrating %q: %w", key, err)
	}
	if err := c.legacy.Remove(key); err != nil {
		// The primary copy wins from now on; a leftover legacy copy is harmless.
		log.Warn().Err(err).Str("key", key).Msg("legacy store cleanup failed")
	}
	log.Debug().Str("key", key).Msg("migrated key from legacy store")
	return value, true, nil
}

func (c *Chain) Set(key, value string) error {
	return c.primary.Set(key, value)
}

// Remove deletes the key from both stores.
func (c *Chain) Remove(key string) error {
	if err := c.primary.Remove(key); err != nil {
		return fmt.Errorf("[Chain.Remove] primary %q: %w", key, err)
	}
	if c.legacy == nil {
		return nil
	}
	if err := c.legacy.Remove(key); err != nil {
		return fmt.Errorf("[Chain.Remove] legacy %q: %w", key, err)
	}
	return nil
}
