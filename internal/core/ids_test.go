package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocIdRoundTrip(t *testing.T) {
	d := NewDocId("docs", "guide/intro.md", 3)
	parsed, err := ParseDocId(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestDocIdRevisionChangesIdentity(t *testing.T) {
	a := NewDocId("docs", "guide/intro.md", 1)
	b := NewDocId("docs", "guide/intro.md", 2)
	assert.NotEqual(t, a, b)
	assert.True(t, a.Less(b))
}

func TestDocIdEscapesSeparator(t *testing.T) {
	d := NewDocId("docs\x1fweird", "id\x1f", 1)
	parsed, err := ParseDocId(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestChunkIdOrderingFollowsParentDoc(t *testing.T) {
	parent := NewDocId("docs", "a", 1)
	c1 := NewChunkId(parent, 0)
	c2 := NewChunkId(parent, 1)
	assert.True(t, c1.Less(c2))
	assert.False(t, c2.Less(c1))
}
