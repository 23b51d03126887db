package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLinkingAndTags(t *testing.T) {
	old := Tags
	defer func() { Tags = old }()

	Tags = nil
	linking, tags := GetLinkingAndTags()
	assert.Equal(t, "static", linking)
	assert.Equal(t, "none", tags)

	Tags = []string{"noselfupdate", "cgo", "cmount"}
	linking, tags = GetLinkingAndTags()
	assert.Equal(t, "dynamic", linking)
	assert.Equal(t, "cmount noselfupdate", tags)
}
