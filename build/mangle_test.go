package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMangleStaticName(t *testing.T) {
	assert.Equal(t, ".counter.next", mangleStaticName("counter", "next", 0))
	assert.Equal(t, ".counter.next.1", mangleStaticName("counter", "next", 1))
	assert.Equal(t, ".counter.next.2", mangleStaticName("counter", "next", 2))
}

func TestMangleStaticNameDistinctFunctions(t *testing.T) {
	a := mangleStaticName("foo", "count", 0)
	b := mangleStaticName("bar", "count", 0)
	assert.NotEqual(t, a, b)
}
