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


package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/corpus/access"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/blob"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/poiesic/corpus/vectorstore"
)

// Corpus wires the job store, document store, embedding client, vector
// store and blob store into one handle. It is the composition root for
// embedding applications; request handling and authentication live outside.
type Corpus struct {
	backend  *badger.Backend
	jobs     storage.JobRepository
	docs     storage.DocumentRepository
	embedder ai.Embedder
	vectors  vectorstore.Store
	blobs    blob.Store
	logger   *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	vectors  vectorstore.Store
	blobs    blob.Store
	inMemory bool
}

// WithAIConfig sets the embedding service configuration used when no
// explicit embedder is supplied.
func WithAIConfig(config *ai.Config) CorpusOption {
	return func(o *corpusOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder supplies a pre-built embedder, bypassing the OpenAI client.
func WithEmbedder(embedder ai.Embedder) CorpusOption {
	return func(o *corpusOptions) {
		o.embedder = embedder
	}
}

// WithVectorStore supplies the vector store implementation.
func WithVectorStore(store vectorstore.Store) CorpusOption {
	return func(o *corpusOptions) {
		o.vectors = store
	}
}

// WithBlobStore supplies the blob store implementation.
func WithBlobStore(store blob.Store) CorpusOption {
	return func(o *corpusOptions) {
		o.blobs = store
	}
}

// WithInMemoryStorage opens the job and document stores in memory. Intended
// for tests and throwaway runs; nothing survives Close.
func WithInMemoryStorage() CorpusOption {
	return func(o *corpusOptions) {
		o.inMemory = true
	}
}

// New opens the stores at filePath and assembles a Corpus. The vector and
// blob stores are required; the embedder defaults to an OpenAI-compatible
// client built from the AI configuration.
func New(filePath string, opts ...CorpusOption) (*Corpus, error) {
	options := &corpusOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.vectors == nil {
		return nil, ingestion.ErrVectorStoreRequired
	}
	if options.blobs == nil {
		return nil, ingestion.ErrBlobStoreRequired
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	return &Corpus{
		backend:  backend,
		jobs:     badger.NewJobRepository(backend),
		docs:     badger.NewDocumentRepository(backend),
		embedder: embedder,
		vectors:  options.vectors,
		blobs:    options.blobs,
		logger:   slog.Default(),
	}, nil
}

// Close releases the underlying stores.
func (c *Corpus) Close() error {
	if err := c.jobs.Close(); err != nil {
		c.logger.Error("error closing job repository", "err", err)
		return err
	}
	if err := c.docs.Close(); err != nil {
		c.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// JobRepository exposes the job store.
func (c *Corpus) JobRepository() storage.JobRepository {
	return c.jobs
}

// DocumentRepository exposes the document store.
func (c *Corpus) DocumentRepository() storage.DocumentRepository {
	return c.docs
}

// NewIngestionService builds the ingestion service over this corpus's
// stores. batcherOpts tune the adaptive embedding pipeline; svcOpts tune
// the service itself.
func (c *Corpus) NewIngestionService(batcherOpts []ingestion.BatcherOption, svcOpts ...ingestion.ServiceOption) (*ingestion.Service, error) {
	batcher, err := ingestion.NewBatcher(c.embedder, batcherOpts...)
	if err != nil {
		return nil, err
	}
	return ingestion.NewService(c.jobs, c.docs, batcher, c.vectors, c.blobs, svcOpts...)
}

// NewDocumentPolicy builds the access policy for documents stored in this
// corpus, resolving access rules through the given collection source.
func (c *Corpus) NewDocumentPolicy(collections access.CollectionSource) (*access.DocumentPolicy, error) {
	return access.NewDocumentPolicy(c.docs.Get, collections)
}

// Authorize resolves the resource through the policy and evaluates the
// user's permission against it. A missing resource fails with
// storage.ErrNotFound; a refusal fails with access.ErrPermissionDenied.
func Authorize(ctx context.Context, policy access.Policy, user access.UserContext, resourceID string, permission access.Permission) (*access.AccessDecision, error) {
	resource, err := policy.ResourceContext(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, fmt.Errorf("%w: resource %s", storage.ErrNotFound, resourceID)
	}

	decision := access.Evaluate(user, *resource, permission)
	if !decision.Allowed {
		return &decision, fmt.Errorf("%w: %s", access.ErrPermissionDenied, decision.Reason)
	}
	return &decision, nil
}
