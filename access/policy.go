package access

import (
	"context"
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Policy supplies the ResourceContext for a resource type. One
// implementation exists per protected resource type; each is backed by an
// injected lookup so the engine stays ignorant of the storage technology.
type Policy interface {
	// ResourceContext returns the context for the identified resource, or
	// nil when the resource does not exist.
	ResourceContext(ctx context.Context, resourceID string) (*ResourceContext, error)
}

// CollectionSource resolves collections for the collection policy.
type CollectionSource interface {
	GetCollection(ctx context.Context, id string) (*core.Collection, error)
}

// RepositorySource resolves repository configurations for the repository policy.
type RepositorySource interface {
	GetRepository(ctx context.Context, id string) (*core.RepositoryConfig, error)
}

// CollectionPolicy derives resource contexts from collection records.
type CollectionPolicy struct {
	source CollectionSource
}

var _ Policy = (*CollectionPolicy)(nil)

// NewCollectionPolicy creates a policy backed by the given source.
func NewCollectionPolicy(source CollectionSource) (*CollectionPolicy, error) {
	if source == nil {
		return nil, fmt.Errorf("collection source required")
	}
	return &CollectionPolicy{source: source}, nil
}

// ResourceContext implements Policy.
func (p *CollectionPolicy) ResourceContext(ctx context.Context, resourceID string) (*ResourceContext, error) {
	collection, err := p.source.GetCollection(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %s: %w", ErrResourceLookup, resourceID, err)
	}
	if collection == nil {
		return nil, nil
	}
	return &ResourceContext{
		ResourceId:    collection.Id,
		ResourceType:  "collection",
		AllowedGroups: collection.AllowedGroups,
		OwnerId:       collection.OwnerId,
		IsPrivate:     collection.IsPrivate,
	}, nil
}

// RepositoryPolicy derives resource contexts from repository configurations.
type RepositoryPolicy struct {
	source RepositorySource
}

var _ Policy = (*RepositoryPolicy)(nil)

// NewRepositoryPolicy creates a policy backed by the given source.
func NewRepositoryPolicy(source RepositorySource) (*RepositoryPolicy, error) {
	if source == nil {
		return nil, fmt.Errorf("repository source required")
	}
	return &RepositoryPolicy{source: source}, nil
}

// ResourceContext implements Policy.
func (p *RepositoryPolicy) ResourceContext(ctx context.Context, resourceID string) (*ResourceContext, error) {
	repo, err := p.source.GetRepository(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: repository %s: %w", ErrResourceLookup, resourceID, err)
	}
	if repo == nil {
		return nil, nil
	}
	return &ResourceContext{
		ResourceId:    repo.Id,
		ResourceType:  "repository",
		AllowedGroups: repo.AllowedGroups,
		OwnerId:       repo.OwnerId,
		IsPrivate:     repo.IsPrivate,
	}, nil
}

// DocumentPolicy derives resource contexts from documents. Documents inherit
// the access rules of the collection that holds them.
type DocumentPolicy struct {
	collections CollectionSource
	lookup      func(ctx context.Context, documentID core.DocumentID) (*core.Document, error)
}

var _ Policy = (*DocumentPolicy)(nil)

// NewDocumentPolicy creates a policy backed by a document lookup and the
// collection source used to resolve the owning collection's rules.
func NewDocumentPolicy(
	lookup func(ctx context.Context, documentID core.DocumentID) (*core.Document, error),
	collections CollectionSource,
) (*DocumentPolicy, error) {
	if lookup == nil {
		return nil, fmt.Errorf("document lookup required")
	}
	if collections == nil {
		return nil, fmt.Errorf("collection source required")
	}
	return &DocumentPolicy{collections: collections, lookup: lookup}, nil
}

// ResourceContext implements Policy. The returned context carries the
// document's identity but the owning collection's access rules.
func (p *DocumentPolicy) ResourceContext(ctx context.Context, resourceID string) (*ResourceContext, error) {
	doc, err := p.lookup(ctx, core.DocumentIDFromPath(resourceID))
	if err != nil {
		return nil, fmt.Errorf("%w: document %s: %w", ErrResourceLookup, resourceID, err)
	}
	if doc == nil {
		return nil, nil
	}

	collection, err := p.collections.GetCollection(ctx, doc.CollectionId)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %s: %w", ErrResourceLookup, doc.CollectionId, err)
	}

	rc := &ResourceContext{
		ResourceId:   resourceID,
		ResourceType: "document",
	}
	if collection != nil {
		rc.AllowedGroups = collection.AllowedGroups
		rc.OwnerId = collection.OwnerId
		rc.IsPrivate = collection.IsPrivate
	}
	return rc, nil
}
