package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSaveFindDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	doc := &store.Document{ID: "d1", Namespace: "bio", Sections: []store.Section{{Title: "Cells"}}}
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Cells", got.Sections[0].Title)

	got.Sections[0].Title = "changed"
	again, _ := repo.FindByID(ctx, "d1")
	assert.Equal(t, "Cells", again.Sections[0].Title)

	require.NoError(t, repo.Delete(ctx, "d1"))
	require.NoError(t, repo.Delete(ctx, "d1"))
	_, err = repo.FindByID(ctx, "d1")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDocumentListByNamespace(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &store.Document{ID: "b", Namespace: "bio", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Save(ctx, &store.Document{ID: "a", Namespace: "bio", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &store.Document{ID: "p", Namespace: "phys", CreatedAt: base}))

	docs, err := repo.List(ctx, specification.ByNamespace{Namespace: "bio"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := repo.List(ctx, specification.Pagination{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "p", page[0].ID)
}
