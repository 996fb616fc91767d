package pluralization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralize(t *testing.T) {
	s := New()
	for word, want := range map[string]string{
		"Blog":      "Blogs",
		"OrderLine": "OrderLines",
		"Category":  "Categories",
		"":          "",
	} {
		assert.Equal(t, want, s.Pluralize(word), word)
	}
	assert.Equal(t, "Post", s.Singularize("Posts"))
	assert.Equal(t, "OrderLine", s.Singularize("OrderLines"))
}

func TestOptions(t *testing.T) {
	s := New(WithIrregular("octopus", "octopi"), WithUncountable("sheep"))
	assert.Equal(t, "octopi", s.Pluralize("octopus"))
	assert.Equal(t, "sheep", s.Pluralize("sheep"))
}

func TestSplitLast(t *testing.T) {
	tests := []struct{ in, head, last string }{
		{"Blog", "", "Blog"},
		{"OrderLine", "Order", "Line"},
		{"UserACL", "User", "ACL"},
		{"blog", "", "blog"},
	}
	for _, tt := range tests {
		head, last := splitLast(tt.in)
		assert.Equal(t, tt.head, head, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
