package s3blob

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
)

func TestLocation(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
		root   string
	}{
		{"saved_models", "ST_model.json", "s3://fc24/saved_models/ST_model.json", "s3://fc24/saved_models"},
		{"/saved_models/", "ST_model.json", "s3://fc24/saved_models/ST_model.json", "s3://fc24/saved_models"},
		{"", "labels.json", "s3://fc24/labels.json", "s3://fc24"},
		{".", "labels.json", "s3://fc24/labels.json", "s3://fc24"},
	}
	for _, tt := range tests {
		r := &Reader{bucket: "fc24", prefix: normalisePrefix(tt.prefix)}
		assert.Equal(t, tt.want, r.Location(tt.key))
		assert.Equal(t, strings.TrimPrefix(tt.want, "s3://fc24/"), r.objectKey(tt.key))
	}
}

type statusErr struct{ code int }

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) HTTPStatusCode() int { return e.code }

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(fmt.Errorf("head: %w", &types.NotFound{})))
	assert.True(t, isNotFound(statusErr{404}))
	assert.False(t, isNotFound(statusErr{403}))
	assert.False(t, isNotFound(errors.New("connection reset")))
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://e2.example.com", normaliseEndpoint("e2.example.com", true))
	assert.Equal(t, "http://e2.example.com", normaliseEndpoint("e2.example.com", false))
	assert.Equal(t, "http://x", normaliseEndpoint("http://x", true))
}
