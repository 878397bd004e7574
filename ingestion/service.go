// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/corpus/blob"
	"github.com/poiesic/corpus/chunk"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectorstore"
)

// Metadata keys attached to every stored vector.
const (
	MetaSourcePath   = "source_path"
	MetaRepositoryId = "repository_id"
	MetaDocumentId   = "document_id"
	MetaJobId        = "job_id"
)

// DefaultJobTimeout bounds one job's external calls end to end. A hung
// vector or object store must fail the job, not pin a pool worker.
const DefaultJobTimeout = 10 * time.Minute

// Service owns the ingestion job state machine. Callers are expected to
// have passed access control before invoking any mutating operation; the
// service itself never evaluates permissions.
type Service struct {
	jobs       storage.JobRepository
	documents  storage.DocumentRepository
	batcher    *Batcher
	vectors    vectorstore.Store
	blobs      blob.Store
	pool       *ants.Pool
	jobTimeout time.Duration

	// archivePrefix, when set, makes cleanup copy each source object
	// under the prefix before deleting it.
	archivePrefix string

	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithPoolSize sets the worker pool size for async job execution.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) ServiceOption {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithJobTimeout bounds the external work of one Ingest or Delete run.
// Default is DefaultJobTimeout.
func WithJobTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) error {
		if timeout <= 0 {
			return fmt.Errorf("job timeout must be positive")
		}
		s.jobTimeout = timeout
		return nil
	}
}

// WithCleanupArchivePrefix makes CleanupPage copy each document's source
// object to prefix+path before deleting it. Empty (the default) disables
// archiving.
func WithCleanupArchivePrefix(prefix string) ServiceOption {
	return func(s *Service) error {
		s.archivePrefix = prefix
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an ingestion service.
func NewService(
	jobs storage.JobRepository,
	documents storage.DocumentRepository,
	batcher *Batcher,
	vectors vectorstore.Store,
	blobs blob.Store,
	opts ...ServiceOption,
) (*Service, error) {
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if batcher == nil {
		return nil, ErrEmbedderRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		jobs:       jobs,
		documents:  documents,
		batcher:    batcher,
		vectors:    vectors,
		blobs:      blobs,
		pool:       pool,
		jobTimeout: DefaultJobTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}
	return s, nil
}

// Release releases the execution pool. The service should not be used after
// calling Release.
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// CreateJob creates a PENDING ingestion job for the request.
//
// The embedding model is resolved in precedence order: the target
// collection's model when the request names a collection, then the model
// named on the request, then the repository default. The chunking strategy
// follows the resolver's precedence rules. At most one non-terminal job may
// exist per document; a second submission fails until the first settles.
func (s *Service) CreateJob(ctx context.Context, repo *core.RepositoryConfig, collection *core.Collection, req *core.IngestionRequest) (*core.IngestionJob, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository config required", core.ErrValidation)
	}
	if req == nil || req.SourcePath == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptySourcePath)
	}

	model := ""
	collectionID := ""
	switch {
	case collection != nil:
		collectionID = collection.Id
		model = collection.EmbeddingModel
	case req.EmbeddingModel != "":
		model = req.EmbeddingModel
	}
	if model == "" {
		model = repo.DefaultEmbeddingModel
	}

	documentID := core.DocumentIDFromPath(req.SourcePath)
	existing, err := s.jobs.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: job %s is %s",
			storage.ErrDuplicateJob, existing.Id, existing.Status)
	}

	now := time.Now().UTC()
	job := &core.IngestionJob{
		Id:             core.NewJobID(),
		RepositoryId:   repo.Id,
		CollectionId:   collectionID,
		DocumentId:     documentID,
		SourcePath:     req.SourcePath,
		EmbeddingModel: model,
		ChunkStrategy:  chunk.ResolveStrategy(req, collection, s.logger),
		Username:       req.Username,
		Metadata:       req.Metadata,
		Status:         core.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := core.ValidateJob(job); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("created ingestion job",
		"job", job.Id, "repository", job.RepositoryId, "path", job.SourcePath)
	return job, nil
}

// CreateDeletionJob creates a PENDING job that will remove a previously
// ingested document. The document record must exist. The same
// one-active-job-per-document invariant as ingestion applies.
func (s *Service) CreateDeletionJob(ctx context.Context, repositoryID, sourcePath, username string) (*core.IngestionJob, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptySourcePath)
	}

	documentID := core.DocumentIDFromPath(sourcePath)
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: no document at %s", storage.ErrNotFound, sourcePath)
	}

	existing, err := s.jobs.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: job %s is %s",
			storage.ErrDuplicateJob, existing.Id, existing.Status)
	}

	now := time.Now().UTC()
	job := &core.IngestionJob{
		Id:            core.NewJobID(),
		RepositoryId:  repositoryID,
		CollectionId:  doc.CollectionId,
		DocumentId:    documentID,
		SourcePath:    sourcePath,
		ChunkStrategy: core.FixedStrategy(core.DefaultChunkSize, core.DefaultChunkOverlap),
		Username:      username,
		Status:        core.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("created deletion job",
		"job", job.Id, "repository", repositoryID, "path", sourcePath)
	return job, nil
}

// SubmitIngest hands the job to the execution pool. Errors during async
// execution drive the job to its failed terminal state and are logged, not
// returned.
func (s *Service) SubmitIngest(job *core.IngestionJob) error {
	return s.pool.Submit(func() {
		if err := s.Ingest(context.Background(), job); err != nil {
			s.logger.Error("ingestion failed", "job", job.Id, "err", err)
		}
	})
}

// SubmitDelete hands the deletion job to the execution pool.
func (s *Service) SubmitDelete(job *core.IngestionJob) error {
	return s.pool.Submit(func() {
		if err := s.Delete(context.Background(), job); err != nil {
			s.logger.Error("deletion failed", "job", job.Id, "err", err)
		}
	})
}

// Ingest performs the chunk/embed/store work for a PENDING job and drives
// it to INGESTION_COMPLETED or INGESTION_FAILED. The job's external calls
// share one deadline; exceeding it fails the job.
func (s *Service) Ingest(ctx context.Context, job *core.IngestionJob) error {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	if _, err := s.jobs.UpdateStatus(ctx, job.Id, core.StatusPending, core.StatusInProgress, ""); err != nil {
		return err
	}

	text, err := s.blobs.Get(ctx, job.SourcePath)
	if err != nil {
		return s.failJob(ctx, job, core.StatusInProgress, core.StatusIngestionFailed,
			fmt.Errorf("reading source: %w", err))
	}

	chunks, err := chunk.Split(string(text), job.ChunkStrategy)
	if err != nil {
		return s.failJob(ctx, job, core.StatusInProgress, core.StatusIngestionFailed,
			fmt.Errorf("splitting source: %w", err))
	}

	batches, err := s.batcher.EmbedAll(ctx, chunks, job.EmbeddingModel)
	if err != nil {
		return s.failJob(ctx, job, core.StatusInProgress, core.StatusIngestionFailed,
			fmt.Errorf("embedding: %w", err))
	}

	// Vectors are written in the batches they were embedded in, after the
	// ordered re-join.
	collection := s.targetCollection(job)
	for _, batch := range batches {
		records := make([]vectorstore.Record, len(batch.Texts))
		for i := range batch.Texts {
			records[i] = vectorstore.Record{
				Vector:   batch.Vectors[i],
				Metadata: s.vectorMetadata(job, batch.Start+i),
			}
		}
		if err := s.vectors.Add(ctx, collection, records); err != nil {
			return s.failJob(ctx, job, core.StatusInProgress, core.StatusIngestionFailed,
				fmt.Errorf("storing vectors: %w", err))
		}
	}

	doc := &core.Document{
		Id:           job.DocumentId,
		RepositoryId: job.RepositoryId,
		CollectionId: job.CollectionId,
		SourcePath:   job.SourcePath,
		InsertedAt:   time.Now().UTC(),
	}
	if err := s.documents.Put(ctx, doc); err != nil {
		return s.failJob(ctx, job, core.StatusInProgress, core.StatusIngestionFailed,
			fmt.Errorf("recording document: %w", err))
	}

	updated, err := s.jobs.UpdateStatus(ctx, job.Id, core.StatusInProgress, core.StatusIngestionCompleted, "")
	if err != nil {
		return err
	}
	*job = *updated

	s.logger.Info("ingestion completed",
		"job", job.Id, "chunks", len(chunks), "batches", len(batches))
	return nil
}

// Delete removes a document's vectors, blob and record, driving the job to
// DELETE_COMPLETED or DELETE_FAILED.
func (s *Service) Delete(ctx context.Context, job *core.IngestionJob) error {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	if _, err := s.jobs.UpdateStatus(ctx, job.Id, core.StatusPending, core.StatusDeleting, ""); err != nil {
		return err
	}

	filter := vectorstore.Filter{
		MetaRepositoryId: job.RepositoryId,
		MetaSourcePath:   job.SourcePath,
	}
	if err := s.vectors.DeleteByFilter(ctx, s.targetCollection(job), filter); err != nil {
		return s.failJob(ctx, job, core.StatusDeleting, core.StatusDeleteFailed,
			fmt.Errorf("deleting vectors: %w", err))
	}

	if err := s.blobs.Delete(ctx, job.SourcePath); err != nil {
		return s.failJob(ctx, job, core.StatusDeleting, core.StatusDeleteFailed,
			fmt.Errorf("deleting source object: %w", err))
	}

	if err := s.documents.Delete(ctx, job.DocumentId); err != nil {
		return s.failJob(ctx, job, core.StatusDeleting, core.StatusDeleteFailed,
			fmt.Errorf("deleting document record: %w", err))
	}

	updated, err := s.jobs.UpdateStatus(ctx, job.Id, core.StatusDeleting, core.StatusDeleteCompleted, "")
	if err != nil {
		return err
	}
	*job = *updated

	s.logger.Info("deletion completed", "job", job.Id, "path", job.SourcePath)
	return nil
}

// ListJobs pages through a repository's jobs in creation order. cursor and
// the returned next cursor are in wire form; timeLimit bounds the call.
func (s *Service) ListJobs(ctx context.Context, repositoryID string, pageSize int, cursor string, timeLimit time.Duration) ([]*core.IngestionJob, string, error) {
	decoded, err := storage.DecodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	page, err := s.jobs.ListByRepository(ctx, repositoryID, pageSize, decoded)
	if err != nil {
		return nil, "", err
	}

	next, err := storage.EncodeCursor(page.Next)
	if err != nil {
		return nil, "", err
	}
	return page.Jobs, next, nil
}

// failJob transitions the job to a failed terminal state, recording the
// cause, and returns the original error.
func (s *Service) failJob(ctx context.Context, job *core.IngestionJob, from, to core.JobStatus, cause error) error {
	updated, updateErr := s.jobs.UpdateStatus(ctx, job.Id, from, to, cause.Error())
	if updateErr != nil {
		s.logger.Error("failed to record job failure",
			"job", job.Id, "status", to, "err", updateErr)
		return fmt.Errorf("%w (status update failed: %w)", cause, updateErr)
	}
	*job = *updated
	return cause
}

// targetCollection names the vector-store collection the job writes to.
// Jobs without an explicit collection use the repository's default space.
func (s *Service) targetCollection(job *core.IngestionJob) string {
	if job.CollectionId != "" {
		return job.CollectionId
	}
	return job.RepositoryId
}

// vectorMetadata tags a stored vector with its provenance plus any
// caller-supplied metadata.
func (s *Service) vectorMetadata(job *core.IngestionJob, index int) map[string]string {
	meta := make(map[string]string, len(job.Metadata)+5)
	for k, v := range job.Metadata {
		meta[k] = v
	}
	meta[MetaSourcePath] = job.SourcePath
	meta[MetaRepositoryId] = job.RepositoryId
	meta[MetaDocumentId] = strconv.FormatUint(uint64(job.DocumentId), 10)
	meta[MetaJobId] = string(job.Id)
	meta["chunk_index"] = strconv.Itoa(index)
	return meta
}
