package storage

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "https://media.example.com/", "test-signing-secret", zap.NewNop())
	require.NoError(t, err)
	return s
}

// objectAndToken разбирает подписанную ссылку на путь объекта и токен.
func objectAndToken(t *testing.T, link string) (string, string) {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.Path, "/files/"))
	return strings.TrimPrefix(u.Path, "/files/"), u.Query().Get("token")
}

func TestLocalStore_PutOverwritesAndSigns(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)

	key := ChapterObjectKey("s1", 1, ".mp3")
	require.NoError(t, s.Put(ctx, "audio", key, []byte("first"), "audio/mpeg"))
	require.NoError(t, s.Put(ctx, "audio", key, []byte("second"), "audio/mpeg"))

	link, err := s.SignedURL(ctx, "audio", key, time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://media.example.com/files/audio/s1/1.mp3?token="))

	object, token := objectAndToken(t, link)
	p, err := s.Open(object, token)
	require.NoError(t, err)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalStore_OpenRejectsForeignOrExpiredToken(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)

	require.NoError(t, s.Put(ctx, "illustrations", "s1/1.png", []byte("a"), "image/png"))
	require.NoError(t, s.Put(ctx, "illustrations", "s1/2.png", []byte("b"), "image/png"))

	link, err := s.SignedURL(ctx, "illustrations", "s1/1.png", time.Hour)
	require.NoError(t, err)
	_, token := objectAndToken(t, link)

	_, err = s.Open("illustrations/s1/2.png", token)
	assert.True(t, errors.Is(err, ErrLinkInvalid))

	expired, err := s.SignedURL(ctx, "illustrations", "s1/1.png", -time.Minute)
	require.NoError(t, err)
	object, expiredToken := objectAndToken(t, expired)
	_, err = s.Open(object, expiredToken)
	assert.True(t, errors.Is(err, ErrLinkInvalid))

	other, err := NewLocalStore(t.TempDir(), "https://media.example.com", "another-secret", zap.NewNop())
	require.NoError(t, err)
	_, err = other.Open(object, token)
	assert.True(t, errors.Is(err, ErrLinkInvalid))
}

func TestLocalStore_SignedURLMissingObject(t *testing.T) {
	s := newTestLocalStore(t)
	_, err := s.SignedURL(context.Background(), "audio", "nope/1.mp3", time.Hour)
	assert.True(t, errors.Is(err, ErrObjectMissing))
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"../etc/passwd", "s1/../../x", "", `s1\1.png`, "s1/./1.png"} {
		_, _, err := cleanKey("audio", key)
		assert.Truef(t, errors.Is(err, ErrInvalidKey), "key %q", key)
	}
	_, _, err := cleanKey("../audio", "s1/1.mp3")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	b, k, err := cleanKey("audio", "s1/1_timestamps.json")
	require.NoError(t, err)
	assert.Equal(t, "audio", b)
	assert.Equal(t, "s1/1_timestamps.json", k)
}
