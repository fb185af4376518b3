package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prdtool/internal/lock"
	"prdtool/internal/repository/content"
	"prdtool/internal/repository/memory"
	"prdtool/internal/service/auth"
	"prdtool/internal/service/docsystem"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestSeedDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := memory.New()
	require.NoError(t, err)
	docRepo := memory.NewDocumentRepository(db)
	store, err := content.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)
	documents := docsystem.NewDocumentService(docRepo, store, memory.NewTransactionManager(),
		auth.NewOwnerBasedAuthorizer(docRepo), lock.Noop{}, logger)

	dir := t.TempDir()
	writeFile(t, dir, "a-checkout.md", "---\ntitle: Checkout redesign\nstatus: active\n---\n# Checkout\n")
	writeFile(t, dir, "b-search.md", "# Search\n")
	writeFile(t, dir, "c-broken.md", "---\ntitle: never closed\n")
	writeFile(t, dir, "d-page.html", "<h2>Scope</h2><script>alert(1)</script>")
	writeFile(t, dir, "slides.pdf", "ignored")

	ownerID := uuid.NewString()
	result, err := NewSeeder(documents, logger).SeedDirectory(context.Background(), dir, ownerID)
	require.NoError(t, err)

	require.Len(t, result.Created, 3)
	assert.Equal(t, "Checkout redesign", result.Created[0].Title)
	assert.Equal(t, "active", result.Created[0].Status)
	assert.Equal(t, "b-search", result.Created[1].Title)
	assert.Equal(t, "d-page", result.Created[2].Title)
	assert.Len(t, result.Failed, 1)

	body, err := store.Read(context.Background(), ownerID, result.Created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "# Checkout\n", body)

	body, err = store.Read(context.Background(), ownerID, result.Created[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "## Scope", body)
}
