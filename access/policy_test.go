package access

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollectionSource struct {
	collections map[string]*core.Collection
	err         error
}

func (s *stubCollectionSource) GetCollection(ctx context.Context, id string) (*core.Collection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.collections[id], nil
}

func TestCollectionPolicy_ResourceContext(t *testing.T) {
	source := &stubCollectionSource{collections: map[string]*core.Collection{
		"col-1": {
			Id:            "col-1",
			OwnerId:       "owner",
			AllowedGroups: []string{"eng"},
			IsPrivate:     true,
		},
	}}
	policy, err := NewCollectionPolicy(source)
	require.NoError(t, err)

	rc, err := policy.ResourceContext(context.Background(), "col-1")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "collection", rc.ResourceType)
	assert.Equal(t, "col-1", rc.ResourceId)
	assert.Equal(t, "owner", rc.OwnerId)
	assert.True(t, rc.IsPrivate)
	assert.Equal(t, []string{"eng"}, rc.AllowedGroups)
}

func TestCollectionPolicy_Missing(t *testing.T) {
	policy, err := NewCollectionPolicy(&stubCollectionSource{})
	require.NoError(t, err)

	rc, err := policy.ResourceContext(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rc)
}

func TestCollectionPolicy_LookupFailure(t *testing.T) {
	policy, err := NewCollectionPolicy(&stubCollectionSource{err: errors.New("backend down")})
	require.NoError(t, err)

	_, err = policy.ResourceContext(context.Background(), "col-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceLookup)
}

func TestDocumentPolicy_InheritsCollectionRules(t *testing.T) {
	path := "docs/a.md"
	doc := &core.Document{
		Id:           core.DocumentIDFromPath(path),
		CollectionId: "col-1",
		SourcePath:   path,
	}
	source := &stubCollectionSource{collections: map[string]*core.Collection{
		"col-1": {Id: "col-1", OwnerId: "owner", AllowedGroups: []string{"eng"}},
	}}

	policy, err := NewDocumentPolicy(func(ctx context.Context, id core.DocumentID) (*core.Document, error) {
		if id == doc.Id {
			return doc, nil
		}
		return nil, nil
	}, source)
	require.NoError(t, err)

	rc, err := policy.ResourceContext(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "document", rc.ResourceType)
	assert.Equal(t, path, rc.ResourceId)
	assert.Equal(t, "owner", rc.OwnerId)
	assert.Equal(t, []string{"eng"}, rc.AllowedGroups)
}
