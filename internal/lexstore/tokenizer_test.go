package lexstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeSplitsCamelAndSnakeCase(t *testing.T) {
	tokens := Tokenize("parseHTTPRequest handle_user_id")
	assert.Contains(t, tokens, "parse")
	assert.Contains(t, tokens, "http")
	assert.Contains(t, tokens, "request")
	assert.Contains(t, tokens, "handle")
	assert.Contains(t, tokens, "user")
	assert.Contains(t, tokens, "id")
}

func TestTokenizeDropsSingleCharTokens(t *testing.T) {
	tokens := Tokenize("a b cd")
	assert.NotContains(t, tokens, "a")
	assert.NotContains(t, tokens, "b")
	assert.Contains(t, tokens, "cd")
}

func TestSplitCamelCaseKeepsAcronymsTogether(t *testing.T) {
	assert.Equal(t, []string{"parse", "HTTP", "Request"}, splitCamelCase("parseHTTPRequest"))
	assert.Equal(t, []string{"HTTP", "Handler"}, splitCamelCase("HTTPHandler"))
}

func TestBuildStopWordSetIsCaseInsensitive(t *testing.T) {
	set := buildStopWordSet([]string{"The", "AND"})
	_, hasThe := set["the"]
	_, hasAnd := set["and"]
	assert.True(t, hasThe)
	assert.True(t, hasAnd)
}
