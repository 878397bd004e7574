package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJob() *IngestionJob {
	return &IngestionJob{
		Id:             NewJobID(),
		RepositoryId:   "repo-1",
		DocumentId:     DocumentIDFromPath("docs/guide.md"),
		SourcePath:     "docs/guide.md",
		EmbeddingModel: "text-embedding-3-small",
		ChunkStrategy:  FixedStrategy(DefaultChunkSize, DefaultChunkOverlap),
		Username:       "alice",
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestValidateJob_Valid(t *testing.T) {
	require.NoError(t, ValidateJob(validJob()))
}

func TestValidateJob_Nil(t *testing.T) {
	err := ValidateJob(nil)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestValidateJob_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IngestionJob)
		want   error
	}{
		{"empty id", func(j *IngestionJob) { j.Id = "" }, ErrInvalidJob},
		{"empty repository", func(j *IngestionJob) { j.RepositoryId = "" }, ErrEmptyRepository},
		{"empty source path", func(j *IngestionJob) { j.SourcePath = "" }, ErrEmptySourcePath},
		{"unknown status", func(j *IngestionJob) { j.Status = StatusUnknown }, ErrInvalidStatus},
		{"bad strategy", func(j *IngestionJob) { j.ChunkStrategy.Overlap = j.ChunkStrategy.Size }, ErrInvalidStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := validJob()
			tt.mutate(job)
			err := ValidateJob(job)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateStrategy(t *testing.T) {
	require.NoError(t, ValidateStrategy(FixedStrategy(1000, 200)))
	require.NoError(t, ValidateStrategy(FixedStrategy(1, 0)))

	assert.ErrorIs(t, ValidateStrategy(ChunkingStrategy{}), ErrInvalidStrategy)
	assert.ErrorIs(t, ValidateStrategy(FixedStrategy(0, 0)), ErrInvalidStrategy)
	assert.ErrorIs(t, ValidateStrategy(FixedStrategy(100, -1)), ErrInvalidStrategy)
	assert.ErrorIs(t, ValidateStrategy(FixedStrategy(100, 100)), ErrInvalidStrategy)
	assert.ErrorIs(t, ValidateStrategy(FixedStrategy(100, 150)), ErrInvalidStrategy)
}

func TestValidateStatus_ClosedSet(t *testing.T) {
	for s := StatusPending; s <= StatusDeleteFailed; s++ {
		assert.NoError(t, ValidateStatus(s))
	}
	assert.ErrorIs(t, ValidateStatus(StatusUnknown), ErrInvalidStatus)
	assert.ErrorIs(t, ValidateStatus(JobStatus(42)), ErrInvalidStatus)
}

func TestDocumentIDFromPath_Deterministic(t *testing.T) {
	a := DocumentIDFromPath("docs/a.md")
	b := DocumentIDFromPath("docs/a.md")
	c := DocumentIDFromPath("docs/b.md")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
