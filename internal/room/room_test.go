package room

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCodeSkipsCollisions(t *testing.T) {
	live := map[string]bool{}
	first := NewCode("room", func(code string) bool { return live[code] })
	assert.True(t, strings.HasPrefix(first, "room_"))
	assert.Len(t, first, len("room_")+6)

	// Mark everything but one code as taken; generation must still terminate
	// on a fresh identifier.
	live[first] = true
	second := NewCode("room", func(code string) bool { return live[code] })
	assert.NotEqual(t, first, second)
}

func TestUniqueName(t *testing.T) {
	assert.Equal(t, "alice", UniqueName("alice", []string{"bob"}))

	got := UniqueName("alice", []string{"alice"})
	assert.NotEqual(t, "alice", got)
	assert.True(t, strings.HasPrefix(got, "alice_"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "alice", BaseName("alice"))
	assert.Equal(t, "alice", BaseName("alice_42"))
	assert.Equal(t, "alice_bob", BaseName("alice_bob"))
	assert.Equal(t, "_7", BaseName("_7"))
}
