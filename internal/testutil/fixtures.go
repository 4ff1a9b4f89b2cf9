// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"sharify/internal/storage"

	"github.com/stretchr/testify/require"
)

// PNG encodes a w x h gradient image.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// FilesystemStore returns storage rooted in a temp dir that serves URLs
// under baseURL.
func FilesystemStore(t testing.TB, baseURL string) *storage.FilesystemAdapter {
	t.Helper()
	store, err := storage.NewFilesystemAdapter(t.TempDir(), baseURL)
	require.NoError(t, err)
	return store
}
