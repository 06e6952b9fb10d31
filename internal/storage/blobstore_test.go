package storage

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *LocalBlobStore {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := NewLocalBlobStore(t.TempDir(), "http://localhost:8001", "test-secret", ttl, logger)
	require.NoError(t, err)
	return store
}

func TestLocalBlobStore_UploadAndVerify(t *testing.T) {
	store := newTestStore(t, time.Hour)

	signedURL, err := store.Upload("original_sensor", []byte("jpeg-bytes"))
	require.NoError(t, err)

	parsed, err := url.Parse(signedURL)
	require.NoError(t, err)

	relPath := strings.TrimPrefix(parsed.Path, "/static/")
	require.True(t, strings.HasPrefix(relPath, "original_sensor/"))

	query := parsed.Query()
	require.True(t, store.Verify(relPath, query.Get("expires"), query.Get("sig")))

	// Файл действительно лежит в хранилище
	fullPath, err := store.Resolve(relPath)
	require.NoError(t, err)
	data, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), data)
}

func TestLocalBlobStore_RejectsTamperedSignature(t *testing.T) {
	store := newTestStore(t, time.Hour)

	signedURL, err := store.Upload("annotated_manual", []byte("jpeg"))
	require.NoError(t, err)

	parsed, err := url.Parse(signedURL)
	require.NoError(t, err)
	relPath := strings.TrimPrefix(parsed.Path, "/static/")
	query := parsed.Query()

	require.False(t, store.Verify(relPath, query.Get("expires"), "deadbeef"))
	require.False(t, store.Verify("other/path.jpg", query.Get("expires"), query.Get("sig")))
	require.False(t, store.Verify(relPath, "not-a-number", query.Get("sig")))
}

func TestLocalBlobStore_RejectsExpiredURL(t *testing.T) {
	// Отрицательный TTL: ссылка истекла в момент выдачи
	store := newTestStore(t, -time.Hour)

	signedURL, err := store.Upload("original_sensor", []byte("jpeg"))
	require.NoError(t, err)

	parsed, err := url.Parse(signedURL)
	require.NoError(t, err)
	relPath := strings.TrimPrefix(parsed.Path, "/static/")
	query := parsed.Query()

	require.False(t, store.Verify(relPath, query.Get("expires"), query.Get("sig")))
}

func TestLocalBlobStore_ResolveBlocksTraversal(t *testing.T) {
	store := newTestStore(t, time.Hour)

	_, err := store.Resolve("../../etc/passwd")
	require.Error(t, err)

	// Нормальный путь внутри хранилища разрешается
	full, err := store.Resolve("original_sensor/a.jpg")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(full, filepath.Join("original_sensor", "a.jpg")))
}
