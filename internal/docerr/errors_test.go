package docerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromCodeRanges(t *testing.T) {
	assert.Equal(t, KindConfiguration, New(CodeConfigInvalid, "x").Kind)
	assert.Equal(t, KindValidation, New(CodeInvalidInput, "x").Kind)
	assert.Equal(t, KindNotFound, New(CodeDocumentNotFound, "x").Kind)
	assert.Equal(t, KindBackend, New(CodeVectorStoreFailure, "x").Kind)
	assert.Equal(t, KindEmbedding, New(CodeEmbeddingFailure, "x").Kind)
	assert.Equal(t, KindTimeout, New(CodeStageTimeout, "x").Kind)
	assert.Equal(t, KindInternal, New(CodeInternal, "x").Kind)
}

func TestErrorIsByCode(t *testing.T) {
	a := Validation("empty query")
	b := Validation("different message, same code")
	assert.True(t, errors.Is(a, b))

	c := NotFound("missing doc")
	assert.False(t, errors.Is(a, c))
}

func TestTransientBackendIsRetryable(t *testing.T) {
	transient := TransientBackend("timeout talking to vector store", nil)
	assert.True(t, IsRetryable(transient))
	assert.True(t, IsTransientBackend(transient))

	permanent := Backend("corrupt index", false, nil)
	assert.False(t, IsRetryable(permanent))
	assert.False(t, IsTransientBackend(permanent))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(CodeEmbeddingFailure, "embedding call failed", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "boom")
}
