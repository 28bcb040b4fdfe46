package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashersAreDeterministic(t *testing.T) {
	ast := assert.New(t)

	ast.Equal(Hash64([]byte("page")), Hash64([]byte("page")))
	ast.Equal(Murmur64([]byte("page")), Murmur64([]byte("page")))
	ast.Equal(StringHasher("page"), Hash64([]byte("page")))
	ast.Equal(Int64Hasher(42), Int64Hasher(42))
	ast.NotEqual(Int64Hasher(42), Int64Hasher(43))
	ast.Equal(Int64Hasher(42), PageIdHasher(42))
}
