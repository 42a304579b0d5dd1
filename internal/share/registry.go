// Package share maps share tokens to the workspaces they expose read-only.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"packlist/internal/model"
	"packlist/internal/store"
)

// ErrNotFound covers unknown, revoked and expired tokens alike.
var ErrNotFound = errors.New("share not found or expired")

type Registry interface {
	Put(ctx context.Context, sh model.Share) error
	Get(ctx context.Context, token string) (model.Share, error)
	Delete(ctx context.Context, token string) error
	Close() error
}

// Open returns the Redis registry when redisURL is set, else the registry
// kept in the workspace's own database.
func Open(s store.Store, redisURL string) (Registry, error) {
	if redisURL != "" {
		return NewRedisRegistry(redisURL)
	}
	return StoreRegistry{Store: s}, nil
}

// Enable mints (or reuses) the list's token and registers it. A positive ttl
// makes the link expire.
func Enable(ctx context.Context, s store.Store, reg Registry, ttl time.Duration, now time.Time) (model.Share, error) {
	token, err := s.CreateShareToken(ctx)
	if err != nil {
		return model.Share{}, fmt.Errorf("create share token: %w", err)
	}
	sh := model.Share{Token: token, Workspace: s.Dir, CreatedAt: now.UTC()}
	if ttl > 0 {
		sh.ExpiresAt = sh.CreatedAt.Add(ttl)
	}
	if err := reg.Put(ctx, sh); err != nil {
		return model.Share{}, fmt.Errorf("register share: %w", err)
	}
	return sh, nil
}

// Disable revokes the list's token. It reports whether a token was active.
func Disable(ctx context.Context, s store.Store, reg Registry) (bool, error) {
	token, err := s.RevokeShareToken(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	if err := reg.Delete(ctx, token); err != nil {
		return true, fmt.Errorf("unregister share: %w", err)
	}
	return true, nil
}

// StoreRegistry keeps shares in the workspace database.
type StoreRegistry struct {
	Store store.Store
}

func (r StoreRegistry) Put(ctx context.Context, sh model.Share) error {
	return r.Store.PutShare(ctx, sh)
}

func (r StoreRegistry) Get(ctx context.Context, token string) (model.Share, error) {
	sh, err := r.Store.LookupShare(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return model.Share{}, ErrNotFound
	}
	return sh, err
}

func (r StoreRegistry) Delete(ctx context.Context, token string) error {
	return r.Store.DeleteShare(ctx, token)
}

func (StoreRegistry) Close() error { return nil }
