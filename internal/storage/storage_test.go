package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sharify/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"7/avatar.webp", "7/avatar.webp", false},
		{"/7/avatar.webp", "7/avatar.webp", false},
		{`7\avatar.webp`, "7/avatar.webp", false},
		{"", "", true},
		{"../etc/passwd", "", true},
		{"a/../../b", "", true},
		{"a//b", "", true},
		{".", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := CleanKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilesystemAdapter_PutAndDelete(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	a, err := NewFilesystemAdapter(root, "http://localhost:8375/media/")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := a.Put(ctx, "avatars", "7/avatar.webp", strings.NewReader("RIFF"), 4, "image/webp")
	require.NoError(t, err)
	assert.Equal(t, int64(4), obj.Size)
	assert.Equal(t, "http://localhost:8375/media/avatars/7/avatar.webp", obj.URL)

	data, err := os.ReadFile(filepath.Join(root, "avatars", "7", "avatar.webp"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	_, err = a.Put(ctx, "avatars", "7/avatar.webp", strings.NewReader("RIFF2"), 5, "image/webp")
	require.NoError(t, err, "overwrites are allowed")

	require.NoError(t, a.Delete(ctx, "avatars", "7/avatar.webp"))
	require.NoError(t, a.Delete(ctx, "avatars", "7/avatar.webp"), "deleting a missing object is not an error")
	_, err = os.Stat(filepath.Join(root, "avatars", "7", "avatar.webp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemAdapter_RejectsEscapes(t *testing.T) {
	t.Parallel()
	a, err := NewFilesystemAdapter(t.TempDir(), "")
	require.NoError(t, err)

	_, err = a.Put(context.Background(), "avatars", "../../x", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
	_, err = a.Put(context.Background(), "../avatars", "x", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{StorageProvider: config.StorageFilesystem, StorageDir: t.TempDir(), PublicBaseURL: "http://api"}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "filesystem", s.Provider())
	assert.Equal(t, "http://api/media/resources/1_a.pdf", s.URL("resources", "1_a.pdf"))

	_, err = New(context.Background(), &config.Config{StorageProvider: "ftp"})
	assert.Error(t, err)
}

func TestMinioAdapterURL(t *testing.T) {
	t.Parallel()
	a, err := NewMinioAdapter("localhost:9000", "key", "secret", false, "https://cdn.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "minio", a.Provider())
	assert.Equal(t, "https://cdn.example.com/avatars/3/avatar.webp", a.URL("avatars", "3/avatar.webp"))

	fallback, err := NewMinioAdapter("localhost:9000", "key", "secret", false, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/resources/x.pdf", fallback.URL("resources", "x.pdf"))
}
