package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when REDIS_TEST_URL is set.
func newTestRepository(t *testing.T) *DocumentRepository {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewDocumentRepository(rdb)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "document:abc", documentKey("abc"))
	assert.Equal(t, "documents:bio", namespaceKey("bio"))
}

func TestRedisDocumentRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ns := "test-" + uuid.NewString()

	doc := &store.Document{
		ID:        uuid.NewString(),
		Namespace: ns,
		Title:     "Cells",
		Sections:  []store.Section{{Index: 0, Title: "Intro", Text: "Cells are small."}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Sections, got.Sections)

	docs, err := repo.List(ctx, specification.ByNamespace{Namespace: ns})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, repo.Delete(ctx, doc.ID))
	require.NoError(t, repo.Delete(ctx, doc.ID))
	_, err = repo.FindByID(ctx, doc.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	docs, err = repo.List(ctx, specification.ByNamespace{Namespace: ns})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
