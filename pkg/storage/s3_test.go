package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageContentType(t *testing.T) {
	ct, err := ImageContentType("image/png", "x.bin")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	ct, err = ImageContentType("image/jpg; charset=binary", "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	ct, err = ImageContentType("application/octet-stream", "me.JPEG")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	_, err = ImageContentType("video/mp4", "clip.mp4")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestProfilePicKey(t *testing.T) {
	k1 := ProfilePicKey(42, "image/png")
	k2 := ProfilePicKey(42, "image/png")
	assert.True(t, strings.HasPrefix(k1, "profile-pics/42/"))
	assert.True(t, strings.HasSuffix(k1, ".png"))
	assert.NotEqual(t, k1, k2)
}
