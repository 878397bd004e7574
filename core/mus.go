package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for persisted domain records. Written by hand rather than
// generated; field order is part of the storage format and must not change
// without a migration.
var (
	JobMUS      = jobMUS{}
	DocumentMUS = documentMUS{}
	StrategyMUS = strategyMUS{}
)

var (
	_ mus.Serializer[IngestionJob]     = jobMUS{}
	_ mus.Serializer[Document]         = documentMUS{}
	_ mus.Serializer[ChunkingStrategy] = strategyMUS{}
)

var metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)

type strategyMUS struct{}

func (strategyMUS) Marshal(s ChunkingStrategy, bs []byte) (n int) {
	n = varint.Int.Marshal(int(s.Kind), bs)
	n += varint.Int.Marshal(s.Size, bs[n:])
	n += varint.Int.Marshal(s.Overlap, bs[n:])
	return n
}

func (strategyMUS) Unmarshal(bs []byte) (s ChunkingStrategy, n int, err error) {
	var (
		kind, n1 int
	)
	kind, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	s.Kind = StrategyKind(kind)
	s.Size, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Overlap, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (strategyMUS) Size(s ChunkingStrategy) (size int) {
	size = varint.Int.Size(int(s.Kind))
	size += varint.Int.Size(s.Size)
	size += varint.Int.Size(s.Overlap)
	return size
}

func (m strategyMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

type jobMUS struct{}

func (m jobMUS) Marshal(j IngestionJob, bs []byte) (n int) {
	n = ord.String.Marshal(string(j.Id), bs)
	n += ord.String.Marshal(j.RepositoryId, bs[n:])
	n += ord.String.Marshal(j.CollectionId, bs[n:])
	n += varint.Uint64.Marshal(uint64(j.DocumentId), bs[n:])
	n += ord.String.Marshal(j.SourcePath, bs[n:])
	n += ord.String.Marshal(j.EmbeddingModel, bs[n:])
	n += StrategyMUS.Marshal(j.ChunkStrategy, bs[n:])
	n += ord.String.Marshal(j.Username, bs[n:])
	n += metadataMUS.Marshal(j.Metadata, bs[n:])
	n += varint.Int.Marshal(int(j.Status), bs[n:])
	n += ord.String.Marshal(j.Failure, bs[n:])
	n += varint.Int64.Marshal(j.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(j.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (m jobMUS) Unmarshal(bs []byte) (j IngestionJob, n int, err error) {
	var n1 int

	var id string
	id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	j.Id = JobID(id)

	j.RepositoryId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.CollectionId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var doc uint64
	doc, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.DocumentId = DocumentID(doc)

	j.SourcePath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.ChunkStrategy, n1, err = StrategyMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Username, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var status int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Status = JobStatus(status)

	j.Failure, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var created, updated int64
	created, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	updated, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.CreatedAt = time.UnixMicro(created).UTC()
	j.UpdatedAt = time.UnixMicro(updated).UTC()
	return
}

func (m jobMUS) Size(j IngestionJob) (size int) {
	size = ord.String.Size(string(j.Id))
	size += ord.String.Size(j.RepositoryId)
	size += ord.String.Size(j.CollectionId)
	size += varint.Uint64.Size(uint64(j.DocumentId))
	size += ord.String.Size(j.SourcePath)
	size += ord.String.Size(j.EmbeddingModel)
	size += StrategyMUS.Size(j.ChunkStrategy)
	size += ord.String.Size(j.Username)
	size += metadataMUS.Size(j.Metadata)
	size += varint.Int.Size(int(j.Status))
	size += ord.String.Size(j.Failure)
	size += varint.Int64.Size(j.CreatedAt.UnixMicro())
	size += varint.Int64.Size(j.UpdatedAt.UnixMicro())
	return size
}

func (m jobMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

type documentMUS struct{}

func (m documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(d.Id), bs)
	n += ord.String.Marshal(d.RepositoryId, bs[n:])
	n += ord.String.Marshal(d.CollectionId, bs[n:])
	n += ord.String.Marshal(d.SourcePath, bs[n:])
	n += varint.Int64.Marshal(d.InsertedAt.UnixMicro(), bs[n:])
	return n
}

func (m documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int

	var id uint64
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Id = DocumentID(id)

	d.RepositoryId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.CollectionId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.SourcePath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var inserted int64
	inserted, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt = time.UnixMicro(inserted).UTC()
	return
}

func (m documentMUS) Size(d Document) (size int) {
	size = varint.Uint64.Size(uint64(d.Id))
	size += ord.String.Size(d.RepositoryId)
	size += ord.String.Size(d.CollectionId)
	size += ord.String.Size(d.SourcePath)
	size += varint.Int64.Size(d.InsertedAt.UnixMicro())
	return size
}

func (m documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}
