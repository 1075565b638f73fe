package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageExt(t *testing.T) {
	ext, ok := ImageExt("image/JPEG; charset=binary")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, ok = ImageExt("application/pdf")
	assert.False(t, ok)
}

func TestPhotoObjectPath(t *testing.T) {
	p := PhotoObjectPath("u1", ".png")
	assert.True(t, strings.HasPrefix(p, "actions/u1/"))
	assert.True(t, strings.HasSuffix(p, ".png"))
	assert.NotEqual(t, p, PhotoObjectPath("u1", ".png"))
	assert.Equal(t, "https://storage.googleapis.com/b/"+p, PublicURL("b", p))
}
