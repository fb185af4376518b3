package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"prdtool/internal/domain"
)

const (
	testOwner = "11111111-1111-4111-8111-111111111111"
	testDoc   = "22222222-2222-4222-8222-222222222222"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewFileStore(root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store, root
}

func TestFileStore_CreateReadWrite(t *testing.T) {
	ctx := context.Background()
	store, root := newTestFileStore(t)

	handle, err := store.Create(ctx, testOwner, testDoc, "# Draft")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, testOwner, testDoc+".md"), handle)

	got, err := store.Read(ctx, testOwner, testDoc)
	require.NoError(t, err)
	assert.Equal(t, "# Draft", got)

	require.NoError(t, store.Write(ctx, testOwner, testDoc, "# Final"))
	got, err = store.Read(ctx, testOwner, testDoc)
	require.NoError(t, err)
	assert.Equal(t, "# Final", got)

	size, err := store.Size(ctx, testOwner, testDoc)
	require.NoError(t, err)
	assert.Equal(t, int64(len("# Final")), size)

	// No temp files are left behind
	entries, err := os.ReadDir(filepath.Join(root, testOwner))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ReadMissingIsEmpty(t *testing.T) {
	store, _ := newTestFileStore(t)

	got, err := store.Read(context.Background(), testOwner, testDoc)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	exists, err := store.Exists(context.Background(), testOwner, testDoc)
	require.NoError(t, err)
	assert.False(t, exists)

	size, err := store.Size(context.Background(), testOwner, testDoc)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	_, err := store.Create(ctx, testOwner, testDoc, "x")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, testOwner, testDoc))
	require.NoError(t, store.Delete(ctx, testOwner, testDoc))

	exists, err := store.Exists(ctx, testOwner, testDoc)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_RejectsNonCanonicalIDs(t *testing.T) {
	ctx := context.Background()
	store, root := newTestFileStore(t)

	badIDs := []string{
		"",
		"../../etc/passwd",
		"not-a-uuid",
		"22222222222242228222222222222222",
		"{22222222-2222-4222-8222-222222222222}",
		"urn:uuid:22222222-2222-4222-8222-222222222222",
		"22222222-2222-4222-8222-22222222222g",
	}

	for _, id := range badIDs {
		t.Run(id, func(t *testing.T) {
			err := store.Write(ctx, testOwner, id, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrStorage))

			var storageErr *domain.StorageError
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, "write", storageErr.Op)

			_, err = store.Read(ctx, id, testDoc)
			assert.ErrorIs(t, err, domain.ErrStorage)

			_, err = store.Create(ctx, testOwner, id, "x")
			assert.ErrorIs(t, err, domain.ErrStorage)
		})
	}

	// Nothing was written under the root
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_UppercaseUUIDAccepted(t *testing.T) {
	store, _ := newTestFileStore(t)
	_, err := store.Create(context.Background(), testOwner, "AAAAAAAA-2222-4222-8222-222222222222", "x")
	assert.NoError(t, err)
}
