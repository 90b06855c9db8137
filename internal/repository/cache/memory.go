// Package cache decorates the permission repository with a per-user list cache.
// Every permission check reads the acting user's full permission list, so that
// list is cached; grants and revocations invalidate the grantee's entry.
package cache

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// MemoryPermissions caches permission lists in process with an expiring LRU.
type MemoryPermissions struct {
	next  repository.PermissionRepository
	cache *expirable.LRU[string, []model.Permission]
}

var _ repository.PermissionRepository = (*MemoryPermissions)(nil)

func NewMemoryPermissions(next repository.PermissionRepository, size int, ttl time.Duration) *MemoryPermissions {
	return &MemoryPermissions{
		next:  next,
		cache: expirable.NewLRU[string, []model.Permission](size, nil, ttl),
	}
}

func (c *MemoryPermissions) Grant(ctx context.Context, p model.Permission) (model.Permission, error) {
	out, err := c.next.Grant(ctx, p)
	c.cache.Remove(p.UserID)
	return out, err
}

func (c *MemoryPermissions) ListByUser(ctx context.Context, userID string) ([]model.Permission, error) {
	if ps, ok := c.cache.Get(userID); ok {
		return slices.Clone(ps), nil
	}
	ps, err := c.next.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(userID, slices.Clone(ps))
	return ps, nil
}

func (c *MemoryPermissions) ListByDocument(ctx context.Context, documentID string) ([]model.Permission, error) {
	return c.next.ListByDocument(ctx, documentID)
}

func (c *MemoryPermissions) Revoke(ctx context.Context, p model.Permission) (bool, error) {
	ok, err := c.next.Revoke(ctx, p)
	c.cache.Remove(p.UserID)
	return ok, err
}
