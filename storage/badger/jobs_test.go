package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepos(t *testing.T) (storage.JobRepository, storage.DocumentRepository) {
	t.Helper()
	jobs, docs, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		jobs.Close()
		docs.Close()
		backend.Close()
	})
	return jobs, docs
}

func newTestJob(repo, path string) *core.IngestionJob {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &core.IngestionJob{
		Id:             core.NewJobID(),
		RepositoryId:   repo,
		CollectionId:   "col-1",
		DocumentId:     core.DocumentIDFromPath(path),
		SourcePath:     path,
		EmbeddingModel: "embeddinggemma",
		ChunkStrategy:  core.FixedStrategy(1000, 200),
		Username:       "alice",
		Status:         core.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestJobRepository_SaveAndFind(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	job := newTestJob("repo-1", "docs/a.md")
	require.NoError(t, jobs.Save(ctx, job))

	got, err := jobs.FindByID(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestJobRepository_FindByID_Missing(t *testing.T) {
	jobs, _ := setupTestRepos(t)

	_, err := jobs.FindByID(context.Background(), core.NewJobID())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJobRepository_FindByDocument(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	job := newTestJob("repo-1", "docs/a.md")
	require.NoError(t, jobs.Save(ctx, job))

	got, err := jobs.FindByDocument(ctx, job.DocumentId)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.Id, got.Id)

	missing, err := jobs.FindByDocument(ctx, core.DocumentIDFromPath("docs/other.md"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestJobRepository_OneActiveJobPerDocument(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	first := newTestJob("repo-1", "docs/a.md")
	require.NoError(t, jobs.Save(ctx, first))

	second := newTestJob("repo-1", "docs/a.md")
	err := jobs.Save(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateJob)

	// Once the first job reaches a terminal state, a new one is accepted.
	_, err = jobs.UpdateStatus(ctx, first.Id, core.StatusPending, core.StatusInProgress, "")
	require.NoError(t, err)
	_, err = jobs.UpdateStatus(ctx, first.Id, core.StatusInProgress, core.StatusIngestionCompleted, "")
	require.NoError(t, err)

	require.NoError(t, jobs.Save(ctx, second))
}

func TestJobRepository_FindByPath_AuditTrail(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	first := newTestJob("repo-1", "docs/a.md")
	require.NoError(t, jobs.Save(ctx, first))
	_, err := jobs.UpdateStatus(ctx, first.Id, core.StatusPending, core.StatusInProgress, "")
	require.NoError(t, err)
	_, err = jobs.UpdateStatus(ctx, first.Id, core.StatusInProgress, core.StatusIngestionFailed, "embedding exhausted retries")
	require.NoError(t, err)

	second := newTestJob("repo-1", "docs/a.md")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, jobs.Save(ctx, second))

	trail, err := jobs.FindByPath(ctx, "docs/a.md")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, first.Id, trail[0].Id)
	assert.Equal(t, second.Id, trail[1].Id)
	assert.Equal(t, "embedding exhausted retries", trail[0].Failure)
}

func TestJobRepository_FindByPath_DelimiterSafety(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	// Colons are legal in object-store paths; one path must never shadow
	// another that merely extends it through a delimiter.
	short := newTestJob("repo-1", "a")
	long := newTestJob("repo-1", "a:b")
	require.NoError(t, jobs.Save(ctx, short))
	require.NoError(t, jobs.Save(ctx, long))

	trail, err := jobs.FindByPath(ctx, "a")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "a", trail[0].SourcePath)

	trail, err = jobs.FindByPath(ctx, "a:b")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "a:b", trail[0].SourcePath)
}

func TestJobRepository_ListByRepository_DelimiterSafety(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, jobs.Save(ctx, newTestJob("team", "docs/a.md")))
	require.NoError(t, jobs.Save(ctx, newTestJob("team:sub", "docs/b.md")))

	page, err := jobs.ListByRepository(ctx, "team", 10, nil)
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, "team", page.Jobs[0].RepositoryId)
}

func TestJobRepository_UpdateStatus_CompareAndSet(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	job := newTestJob("repo-1", "docs/a.md")
	require.NoError(t, jobs.Save(ctx, job))

	updated, err := jobs.UpdateStatus(ctx, job.Id, core.StatusPending, core.StatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, updated.Status)

	// A second trigger still believing the job is PENDING must not win.
	_, err = jobs.UpdateStatus(ctx, job.Id, core.StatusPending, core.StatusInProgress, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrConflict)

	// The stored record kept the first transition.
	got, err := jobs.FindByID(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, got.Status)
}

func TestJobRepository_UpdateStatus_Missing(t *testing.T) {
	jobs, _ := setupTestRepos(t)

	_, err := jobs.UpdateStatus(context.Background(), core.NewJobID(),
		core.StatusPending, core.StatusInProgress, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJobRepository_ListByRepository_Pagination(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	var ids []core.JobID
	for i := 0; i < 5; i++ {
		job := newTestJob("repo-1", "docs/"+string(rune('a'+i))+".md")
		job.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, jobs.Save(ctx, job))
		ids = append(ids, job.Id)
	}
	// A different repository's jobs must not leak into the listing.
	other := newTestJob("repo-2", "docs/z.md")
	require.NoError(t, jobs.Save(ctx, other))

	var listed []core.JobID
	var cursor storage.Cursor
	pages := 0
	for {
		page, err := jobs.ListByRepository(ctx, "repo-1", 2, cursor)
		require.NoError(t, err)
		pages++
		for _, j := range page.Jobs {
			listed = append(listed, j.Id)
		}
		if page.Next == nil {
			break
		}
		// Cursors survive the wire round-trip.
		encoded, err := storage.EncodeCursor(page.Next)
		require.NoError(t, err)
		cursor, err = storage.DecodeCursor(encoded)
		require.NoError(t, err)
	}

	assert.Equal(t, ids, listed, "jobs should come back in creation order")
	assert.Equal(t, 3, pages)
}

func TestJobRepository_ListByRepository_BadCursor(t *testing.T) {
	jobs, _ := setupTestRepos(t)

	_, err := jobs.ListByRepository(context.Background(), "repo-1", 2,
		storage.Cursor{"last_key": "%%%not-base64%%%"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidCursor)

	_, err = jobs.ListByRepository(context.Background(), "repo-1", 2,
		storage.Cursor{"wrong": "attr"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidCursor)
}

func TestJobRepository_ListByRepository_BadPageSize(t *testing.T) {
	jobs, _ := setupTestRepos(t)

	_, err := jobs.ListByRepository(context.Background(), "repo-1", 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestJobRepository_CountActiveDeletions(t *testing.T) {
	jobs, _ := setupTestRepos(t)
	ctx := context.Background()

	count, err := jobs.CountActiveDeletions(ctx, "repo-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	a := newTestJob("repo-1", "docs/a.md")
	b := newTestJob("repo-1", "docs/b.md")
	require.NoError(t, jobs.Save(ctx, a))
	require.NoError(t, jobs.Save(ctx, b))

	_, err = jobs.UpdateStatus(ctx, a.Id, core.StatusPending, core.StatusDeleting, "")
	require.NoError(t, err)
	_, err = jobs.UpdateStatus(ctx, b.Id, core.StatusPending, core.StatusDeleting, "")
	require.NoError(t, err)

	count, err = jobs.CountActiveDeletions(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = jobs.UpdateStatus(ctx, a.Id, core.StatusDeleting, core.StatusDeleteCompleted, "")
	require.NoError(t, err)

	count, err = jobs.CountActiveDeletions(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
