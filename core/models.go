package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// JobID uniquely identifies an ingestion job.
type JobID string

// NewJobID generates a fresh random job identifier.
func NewJobID() JobID {
	return JobID(uuid.NewString())
}

// DocumentID is a deterministic identifier for a source document.
// It is derived from the document's source path so that the same path
// always maps to the same document.
type DocumentID uint64

// DocumentIDFromPath generates a deterministic ID from a source path using
// BLAKE2b hashing. Identical paths produce identical IDs.
func DocumentIDFromPath(path string) DocumentID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(path))
	sum := h.Sum(nil)
	return DocumentID(binary.LittleEndian.Uint64(sum))
}

// StrategyKind identifies a chunking strategy variant.
type StrategyKind int

const (
	// StrategyFixed splits text into fixed-size chunks with overlap.
	StrategyFixed StrategyKind = iota + 1
)

// Fallback Fixed strategy parameters, used when neither the request nor the
// collection supplies a strategy.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkingStrategy describes how a document's text is split into embeddable
// units. It is resolved once at job creation and immutable thereafter.
// The only variant currently is Fixed{size, overlap} with overlap < size.
type ChunkingStrategy struct {
	Kind    StrategyKind
	Size    int
	Overlap int
}

// FixedStrategy constructs a Fixed chunking strategy.
func FixedStrategy(size, overlap int) ChunkingStrategy {
	return ChunkingStrategy{Kind: StrategyFixed, Size: size, Overlap: overlap}
}

// IngestionJob tracks a document's journey into or out of a vector index.
// Jobs are mutated only through status transitions and are never physically
// deleted; terminal jobs are retained for audit.
type IngestionJob struct {
	Id             JobID
	RepositoryId   string
	CollectionId   string
	DocumentId     DocumentID
	SourcePath     string
	EmbeddingModel string
	ChunkStrategy  ChunkingStrategy
	Username       string
	Metadata       map[string]string
	Status         JobStatus
	Failure        string // populated when the job reaches a failed terminal state
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Collection is a logical named subset of a repository's vector index with
// its own access rules and embedding model.
type Collection struct {
	Id                    string
	RepositoryId          string
	Name                  string
	EmbeddingModel        string
	Strategy              *ChunkingStrategy // configured strategy, nil when unset
	AllowStrategyOverride bool
	OwnerId               string
	AllowedGroups         []string
	IsPrivate             bool
}

// RepositoryConfig is a top-level vector-store backend configuration
// containing one or more collections.
type RepositoryConfig struct {
	Id                    string
	Name                  string
	DefaultEmbeddingModel string
	OwnerId               string
	AllowedGroups         []string
	IsPrivate             bool
}

// Document records a source document known to a repository.
type Document struct {
	Id           DocumentID
	RepositoryId string
	CollectionId string
	SourcePath   string
	InsertedAt   time.Time
}

// IngestionRequest carries the caller-supplied parameters for creating an
// ingestion job. Strategy parameters arrive as strings and are parsed
// leniently during resolution.
type IngestionRequest struct {
	SourcePath      string
	CollectionId    string
	EmbeddingModel  string
	Username        string
	Metadata        map[string]string
	ChunkSize       string // ad hoc Fixed size override
	ChunkOverlap    string // ad hoc Fixed overlap override
	StrategySize    string // explicit strategy, honored only when the collection allows overrides
	StrategyOverlap string
}
