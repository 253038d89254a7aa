package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "playervalue:lock:ST_model.json", joinKey("playervalue", "lock", "ST_model.json"))
	assert.Equal(t, "lock:x", joinKey("", "lock", "x"))
	assert.Equal(t, "pv", joinKey("pv"))
}

func TestArtifactStoreKeysAreVersioned(t *testing.T) {
	c := &Client{prefix: "playervalue"}
	s := &ArtifactStore{c: &Client{prefix: c.Key("models")}}
	a := s.cacheKey("ST_model.json", `"etag-1"`)
	b := s.cacheKey("ST_model.json", `"etag-2"`)
	assert.Equal(t, `playervalue:models:ST_model.json:"etag-1"`, a)
	assert.NotEqual(t, a, b)
}
