package corpus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/access"
	aimock "github.com/poiesic/corpus/ai/mock"
	blobmock "github.com/poiesic/corpus/blob/mock"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/storage"
	vsmock "github.com/poiesic/corpus/vectorstore/mock"
)

type staticCollections map[string]*core.Collection

func (s staticCollections) GetCollection(ctx context.Context, id string) (*core.Collection, error) {
	return s[id], nil
}

func newTestCorpus(t *testing.T) (*Corpus, *vsmock.MockStore, *blobmock.MockStore) {
	t.Helper()

	vectors := vsmock.NewMockStore()
	blobs := blobmock.NewMockStore()

	c, err := New("",
		WithInMemoryStorage(),
		WithEmbedder(aimock.NewMockEmbedder()),
		WithVectorStore(vectors),
		WithBlobStore(blobs),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, vectors, blobs
}

func TestNewRequiresStores(t *testing.T) {
	_, err := New("", WithInMemoryStorage(), WithEmbedder(aimock.NewMockEmbedder()))
	assert.ErrorIs(t, err, ingestion.ErrVectorStoreRequired)

	_, err = New("",
		WithInMemoryStorage(),
		WithEmbedder(aimock.NewMockEmbedder()),
		WithVectorStore(vsmock.NewMockStore()),
	)
	assert.ErrorIs(t, err, ingestion.ErrBlobStoreRequired)
}

func TestCorpusIngestionRoundTrip(t *testing.T) {
	c, vectors, blobs := newTestCorpus(t)
	ctx := context.Background()

	svc, err := c.NewIngestionService(nil)
	require.NoError(t, err)
	defer svc.Release()

	blobs.Put("notes/plan.md", []byte("a short planning document"))

	repo := &core.RepositoryConfig{Id: "repo-1", DefaultEmbeddingModel: "default-model"}
	job, err := svc.CreateJob(ctx, repo, nil, &core.IngestionRequest{SourcePath: "notes/plan.md"})
	require.NoError(t, err)

	require.NoError(t, svc.Ingest(ctx, job))
	assert.Equal(t, core.StatusIngestionCompleted, job.Status)
	assert.NotEmpty(t, vectors.Records("repo-1"))

	stored, err := c.JobRepository().FindByID(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusIngestionCompleted, stored.Status)

	doc, err := c.DocumentRepository().Get(ctx, job.DocumentId)
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	collections := staticCollections{
		"col-1": {
			Id:            "col-1",
			OwnerId:       "alice",
			AllowedGroups: []string{"search"},
			IsPrivate:     true,
		},
	}
	policy, err := access.NewCollectionPolicy(collections)
	require.NoError(t, err)

	owner := access.UserContext{UserId: "alice"}
	decision, err := Authorize(ctx, policy, owner, "col-1", access.PermissionWrite)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	stranger := access.UserContext{UserId: "mallory"}
	decision, err = Authorize(ctx, policy, stranger, "col-1", access.PermissionRead)
	require.Error(t, err)
	assert.ErrorIs(t, err, access.ErrPermissionDenied)
	require.NotNil(t, decision)
	assert.False(t, decision.Allowed)

	_, err = Authorize(ctx, policy, owner, "col-missing", access.PermissionRead)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
