package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(Config{Path: filepath.Join(t.TempDir(), "scenes.db")}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testObjects() []scene.PlacedObject {
	initial := scene.DefaultPlacement
	return []scene.PlacedObject{
		{
			ID: "tree-1", ModelID: "tree",
			Transform: scene.Transform{Position: scene.V3(1, 2, -3), Rotation: scene.V3(0, 45, 0), Scale: scene.Uniform(0.7)},
			Initial:   initial,
			Visible:   true,
		},
		{
			ID: "gift-1", ModelID: "gift",
			Transform: initial,
			Initial:   initial,
			Locked:    true,
			Visible:   true,
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "living-room", testObjects()))

	got, err := repo.Load(ctx, "living-room")
	require.NoError(t, err)
	assert.Equal(t, testObjects(), got)
}

func TestSaveReplaces(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "garden", testObjects()))
	require.NoError(t, repo.Save(ctx, "garden", testObjects()[1:]))

	got, err := repo.Load(ctx, "garden")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scene.ObjectID("gift-1"), got[0].ID)

	require.NoError(t, repo.Save(ctx, "garden", nil))
	got, err = repo.Load(ctx, "garden")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListAndDelete(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "b-scene", testObjects()))
	require.NoError(t, repo.Save(ctx, "a-scene", testObjects()[:1]))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-scene", list[0].Name)
	assert.Equal(t, 1, list[0].Objects)
	assert.Equal(t, "b-scene", list[1].Name)
	assert.Equal(t, 2, list[1].Objects)
	assert.False(t, list[1].UpdatedAt.IsZero())

	require.NoError(t, repo.Delete(ctx, "b-scene"))
	_, err = repo.Load(ctx, "b-scene")
	assert.ErrorIs(t, err, ErrSceneNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "b-scene"), ErrSceneNotFound)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInvalidName(t *testing.T) {
	repo := openTestRepository(t)
	assert.ErrorIs(t, repo.Save(context.Background(), "", nil), ErrInvalidName)
}

func TestInMemoryRepositoriesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, err := Open(Config{}, nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(Config{}, nil)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Save(ctx, "only-in-a", testObjects()))

	_, err = b.Load(ctx, "only-in-a")
	assert.ErrorIs(t, err, ErrSceneNotFound)
	got, err := a.Load(ctx, "only-in-a")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.db")
	ctx := context.Background()

	repo, err := Open(Config{Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "kept", testObjects()))
	require.NoError(t, repo.Close())

	repo, err = Open(Config{Path: path}, nil)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.Load(ctx, "kept")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
