package app

import (
	"testing"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolverMappingFirst(t *testing.T) {
	r := NewResolver()
	assert.False(t, r.RecordMapping("s1", "p1"))

	id, ok := r.Resolve("s1")
	assert.True(t, ok)
	assert.Equal(t, domain.PeerID("p1"), id)
}

func TestResolverLateMappingUpgrades(t *testing.T) {
	r := NewResolver()

	id, ok := r.Resolve("s1")
	assert.False(t, ok)
	assert.Equal(t, domain.GuestPeer, id)

	assert.True(t, r.RecordMapping("s1", "p1"), "pending stream should be upgraded")
	id, ok = r.Resolve("s1")
	assert.True(t, ok)
	assert.Equal(t, domain.PeerID("p1"), id)

	assert.False(t, r.RecordMapping("s1", "p1"), "already resolved")
}

func TestResolverForget(t *testing.T) {
	r := NewResolver()
	r.RecordMapping("s1", "p1")
	r.RecordMapping("s2", "p1")
	r.RecordMapping("s3", "p2")

	r.Forget("p1")
	_, ok := r.Lookup("s1")
	assert.False(t, ok)
	_, ok = r.Lookup("s2")
	assert.False(t, ok)
	_, ok = r.Lookup("s3")
	assert.True(t, ok)

	r.Resolve("s4")
	r.ForgetStream("s4")
	assert.False(t, r.RecordMapping("s4", "p3"), "forgotten stream is no longer pending")
}
