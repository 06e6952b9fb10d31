package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BlobStore хранилище бинарных артефактов с выдачей подписанных ссылок
type BlobStore interface {
	// Upload сохраняет блоб под префиксом и возвращает подписанную ссылку
	Upload(prefix string, data []byte) (string, error)
}

// LocalBlobStore хранит артефакты в статической папке сервера и подписывает
// ссылки HMAC токеном с ограниченным сроком жизни
type LocalBlobStore struct {
	baseDir string
	baseURL string
	secret  []byte
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewLocalBlobStore создает хранилище артефактов в заданной папке
func NewLocalBlobStore(baseDir, baseURL, secret string, ttl time.Duration, logger *logrus.Logger) (*LocalBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &LocalBlobStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// Upload сохраняет артефакт под свежим уникальным именем и возвращает
// подписанную ссылку для его получения
func (s *LocalBlobStore) Upload(prefix string, data []byte) (string, error) {
	name := fmt.Sprintf("%s.jpg", uuid.New().String())
	relPath := filepath.ToSlash(filepath.Join(prefix, name))

	dir := filepath.Join(s.baseDir, prefix)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create prefix directory: %w", err)
	}

	fullPath := filepath.Join(dir, name)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	s.logger.Debugf("Артефакт сохранен: %s (%d байт)", relPath, len(data))
	return s.SignedURL(relPath), nil
}

// SignedURL выдаёт ссылку на артефакт с токеном, действующим в течение TTL хранилища
func (s *LocalBlobStore) SignedURL(relPath string) string {
	expires := time.Now().Add(s.ttl).Unix()
	sig := s.sign(relPath, expires)
	return fmt.Sprintf("%s/static/%s?expires=%d&sig=%s", s.baseURL, relPath, expires, sig)
}

// Verify проверяет подпись и срок жизни ссылки на артефакт
func (s *LocalBlobStore) Verify(relPath, expiresStr, sig string) bool {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}

	if time.Now().Unix() > expires {
		return false
	}

	expected := s.sign(relPath, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// Resolve возвращает абсолютный путь к артефакту, запрещая выход из базовой папки
func (s *LocalBlobStore) Resolve(relPath string) (string, error) {
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(filepath.Join(base, filepath.FromSlash(relPath)))
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s escapes blob directory", relPath)
	}

	return abs, nil
}

// sign вычисляет HMAC-SHA256 подпись пути и срока жизни
func (s *LocalBlobStore) sign(relPath string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\x00%d", relPath, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
