package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/repository/mocks"
)

func newPermission(t *testing.T, userID string, role model.DocumentRole) model.Permission {
	t.Helper()
	p, err := model.NewPermission(model.PermissionParams{
		UserID:     userID,
		CreatorID:  uuid.NewString(),
		DocumentID: uuid.NewString(),
		Role:       role,
	})
	require.NoError(t, err)
	return p
}

func setupRedis(t *testing.T, next repository.PermissionRepository) (*RedisPermissions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), config.CacheConfig{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisPermissions(next, client, 30*time.Second, zap.NewNop()), mr
}

// cachedRepos runs the same behavioural checks against both cache backends.
func cachedRepos(t *testing.T) map[string]func(repository.PermissionRepository) repository.PermissionRepository {
	return map[string]func(repository.PermissionRepository) repository.PermissionRepository{
		"memory": func(next repository.PermissionRepository) repository.PermissionRepository {
			return NewMemoryPermissions(next, 16, 30*time.Second)
		},
		"redis": func(next repository.PermissionRepository) repository.PermissionRepository {
			c, _ := setupRedis(t, next)
			return c
		},
	}
}

func TestPermissionCache_ListByUserHitsRepositoryOnce(t *testing.T) {
	for name, build := range cachedRepos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.NewString()
			p := newPermission(t, user, model.RoleViewer)

			repo := new(mocks.MockPermissionRepository)
			repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{p}, nil).Once()
			c := build(repo)

			for i := 0; i < 3; i++ {
				got, err := c.ListByUser(ctx, user)
				require.NoError(t, err)
				assert.Equal(t, []model.Permission{p}, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestPermissionCache_GrantAndRevokeInvalidate(t *testing.T) {
	for name, build := range cachedRepos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.NewString()
			p := newPermission(t, user, model.RoleEditor)

			repo := new(mocks.MockPermissionRepository)
			repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{}, nil).Once()
			repo.On("Grant", mock.Anything, p).Return(p, nil).Once()
			repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{p}, nil).Once()
			repo.On("Revoke", mock.Anything, p).Return(true, nil).Once()
			repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{}, nil).Once()
			c := build(repo)

			got, err := c.ListByUser(ctx, user)
			require.NoError(t, err)
			assert.Empty(t, got)

			_, err = c.Grant(ctx, p)
			require.NoError(t, err)
			got, err = c.ListByUser(ctx, user)
			require.NoError(t, err)
			assert.Len(t, got, 1)

			ok, err := c.Revoke(ctx, p)
			require.NoError(t, err)
			assert.True(t, ok)
			got, err = c.ListByUser(ctx, user)
			require.NoError(t, err)
			assert.Empty(t, got)

			repo.AssertExpectations(t)
		})
	}
}

func TestPermissionCache_ErrorsAreNotCached(t *testing.T) {
	for name, build := range cachedRepos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.NewString()

			repo := new(mocks.MockPermissionRepository)
			repo.On("ListByUser", mock.Anything, user).Return(nil, errors.New("db down")).Once()
			repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{}, nil).Once()
			c := build(repo)

			_, err := c.ListByUser(ctx, user)
			assert.Error(t, err)
			_, err = c.ListByUser(ctx, user)
			assert.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestMemoryPermissions_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	user := uuid.NewString()
	p := newPermission(t, user, model.RoleViewer)

	repo := new(mocks.MockPermissionRepository)
	repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{p}, nil).Once()
	c := NewMemoryPermissions(repo, 4, time.Minute)

	first, err := c.ListByUser(ctx, user)
	require.NoError(t, err)
	first[0].Role = model.RoleCreator

	second, err := c.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, second[0].Role)
}

func TestRedisPermissions_FallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	user := uuid.NewString()

	repo := new(mocks.MockPermissionRepository)
	repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{}, nil).Twice()
	c, mr := setupRedis(t, repo)
	mr.Close()

	for i := 0; i < 2; i++ {
		_, err := c.ListByUser(ctx, user)
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestRedisPermissions_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	user := uuid.NewString()

	repo := new(mocks.MockPermissionRepository)
	repo.On("ListByUser", mock.Anything, user).Return([]model.Permission{}, nil).Twice()
	c, mr := setupRedis(t, repo)

	_, err := c.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+user))

	mr.FastForward(31 * time.Second)
	_, err = c.ListByUser(ctx, user)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
