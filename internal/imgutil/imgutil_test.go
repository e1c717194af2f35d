package imgutil_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storybook-backend/internal/imgutil"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	mimeType, err := imgutil.Validate(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	_, err = imgutil.Validate([]byte("<html>not an image</html>"))
	assert.ErrorIs(t, err, imgutil.ErrNotImage)

	_, err = imgutil.Validate(nil)
	assert.ErrorIs(t, err, imgutil.ErrNotImage)
}

func TestDataURLRoundTrip(t *testing.T) {
	data := pngBytes(t)
	encoded := imgutil.EncodeDataURL("image/png", data)
	assert.True(t, bytes.HasPrefix([]byte(encoded), []byte("data:image/png;base64,")))

	mimeType, decoded, err := imgutil.DecodeDataURL(encoded)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, decoded)
}

func TestDecodeDataURL_Rejects(t *testing.T) {
	for _, in := range []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,@@@",
	} {
		_, _, err := imgutil.DecodeDataURL(in)
		assert.Error(t, err, in)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imgutil.Extension("image/jpeg"))
	assert.Equal(t, ".webp", imgutil.Extension("image/webp"))
	assert.Equal(t, ".png", imgutil.Extension("image/png"))
	assert.Equal(t, ".png", imgutil.Extension("application/octet-stream"))
}

func TestCheckRemoteURL(t *testing.T) {
	assert.Error(t, imgutil.CheckRemoteURL("ftp://example.com/a.png"))
	assert.Error(t, imgutil.CheckRemoteURL("http://127.0.0.1/a.png"))
	assert.Error(t, imgutil.CheckRemoteURL("http://10.0.0.8/a.png"))
	assert.Error(t, imgutil.CheckRemoteURL("http://169.254.169.254/latest/meta-data"))
	assert.NoError(t, imgutil.CheckRemoteURL("https://93.184.216.34/a.png"))
}

func TestObjectKey(t *testing.T) {
	k := imgutil.ObjectKey("/NovelSmith/", "image/png")
	assert.True(t, strings.HasPrefix(k, "NovelSmith/"))
	assert.True(t, strings.HasSuffix(k, ".png"))
	assert.NotEqual(t, k, imgutil.ObjectKey("NovelSmith", "image/png"))

	bare := imgutil.ObjectKey("", "image/jpeg")
	assert.True(t, strings.HasSuffix(bare, ".jpg"))
	assert.NotContains(t, bare, "/")
}
