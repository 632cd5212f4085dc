package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "héé", Truncate("hééllo", 3))

	long := strings.Repeat("ü", 5000)
	assert.Equal(t, 2000, utf8.RuneCountInString(Truncate(long, 2000)))
	assert.True(t, utf8.ValidString(Truncate(long, 1999)))
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", Ellipsize("short", 100))

	out := Ellipsize(strings.Repeat("a", 150), 100)
	assert.Equal(t, 100, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))

	assert.Equal(t, "ab", Ellipsize("abcdef", 2))
}
