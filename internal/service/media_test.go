package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storybook-server/internal/mocks"
	"storybook-server/internal/models"
	"storybook-server/internal/prompts"
	"storybook-server/internal/service"
	"storybook-server/internal/storage"
)

// pngHeader - минимальная сигнатура PNG, её достаточно для определения типа.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newLocalStore(t *testing.T) (*storage.LocalStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "https://media.example.com", "media-secret", zap.NewNop())
	require.NoError(t, err)
	return store, root
}

func linkPath(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.NotEmpty(t, u.Query().Get("token"))
	return u.Path
}

func TestIllustrator_StoresUnderChapterKey(t *testing.T) {
	ctx := context.Background()
	store, root := newLocalStore(t)
	images := new(mocks.MockImageGenerator)
	images.On("GenerateImage", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.HasPrefix(prompt, prompts.IllustrationPreamble) &&
			strings.Contains(prompt, "The main character looks like: A tiny knight.") &&
			strings.HasSuffix(prompt, "Mira rode out at dawn.")
	})).Return(pngHeader, nil).Once()

	il := service.NewIllustrator(images, store, "illustrations", 24*time.Hour, zap.NewNop())
	link, err := il.Illustrate(ctx, "s1", 1, "A tiny knight.", "Mira rode out at dawn.")
	require.NoError(t, err)
	assert.Equal(t, "/files/illustrations/s1/1.png", linkPath(t, link))

	data, err := os.ReadFile(filepath.Join(root, "illustrations", "s1", "1.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	images.AssertExpectations(t)
}

func TestIllustrator_OverwritesOnRetry(t *testing.T) {
	ctx := context.Background()
	store, root := newLocalStore(t)
	second := append(append([]byte(nil), pngHeader...), 0x01)
	images := new(mocks.MockImageGenerator)
	images.On("GenerateImage", mock.Anything, mock.Anything).Return(pngHeader, nil).Once()
	images.On("GenerateImage", mock.Anything, mock.Anything).Return(second, nil).Once()

	il := service.NewIllustrator(images, store, "illustrations", time.Hour, zap.NewNop())
	_, err := il.Illustrate(ctx, "s1", 2, "", "text")
	require.NoError(t, err)
	_, err = il.Illustrate(ctx, "s1", 2, "", "text")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "illustrations", "s1", "2.png"))
	require.NoError(t, err)
	assert.Equal(t, second, data)
}

func TestIllustrator_FormatChangeKeepsSinglePath(t *testing.T) {
	ctx := context.Background()
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

	t.Run("jpeg is stored under png key with real content type", func(t *testing.T) {
		images := new(mocks.MockImageGenerator)
		store := new(mocks.MockObjectStore)
		images.On("GenerateImage", mock.Anything, mock.Anything).Return(jpeg, nil).Once()
		store.On("Put", mock.Anything, "b", "s1/1.png", jpeg, "image/jpeg").Return(nil).Once()
		store.On("SignedURL", mock.Anything, "b", "s1/1.png", time.Hour).Return("https://media.example.com/s1/1.png", nil).Once()

		link, err := service.NewIllustrator(images, store, "b", time.Hour, zap.NewNop()).Illustrate(ctx, "s1", 1, "", "text")
		require.NoError(t, err)
		assert.Equal(t, "https://media.example.com/s1/1.png", link)
		store.AssertExpectations(t)
	})

	t.Run("png then jpeg leaves one object", func(t *testing.T) {
		store, root := newLocalStore(t)
		images := new(mocks.MockImageGenerator)
		images.On("GenerateImage", mock.Anything, mock.Anything).Return(pngHeader, nil).Once()
		images.On("GenerateImage", mock.Anything, mock.Anything).Return(jpeg, nil).Once()

		il := service.NewIllustrator(images, store, "illustrations", time.Hour, zap.NewNop())
		_, err := il.Illustrate(ctx, "s1", 3, "", "text")
		require.NoError(t, err)
		_, err = il.Illustrate(ctx, "s1", 3, "", "text")
		require.NoError(t, err)

		entries, err := os.ReadDir(filepath.Join(root, "illustrations", "s1"))
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.Equal(t, []string{"3.png"}, names)

		data, err := os.ReadFile(filepath.Join(root, "illustrations", "s1", "3.png"))
		require.NoError(t, err)
		assert.Equal(t, jpeg, data)
	})
}

func TestIllustrator_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		images := new(mocks.MockImageGenerator)
		store := new(mocks.MockObjectStore)
		images.On("GenerateImage", mock.Anything, mock.Anything).Return(nil, models.ErrUpstreamUnavailable).Once()

		_, err := service.NewIllustrator(images, store, "b", time.Hour, zap.NewNop()).Illustrate(ctx, "s1", 1, "", "text")
		require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
		store.AssertNumberOfCalls(t, "Put", 0)
	})

	t.Run("payload is not an image", func(t *testing.T) {
		images := new(mocks.MockImageGenerator)
		store := new(mocks.MockObjectStore)
		images.On("GenerateImage", mock.Anything, mock.Anything).Return([]byte(`{"error":"nope"}`), nil).Once()

		_, err := service.NewIllustrator(images, store, "b", time.Hour, zap.NewNop()).Illustrate(ctx, "s1", 1, "", "text")
		require.Error(t, err)
		store.AssertNumberOfCalls(t, "Put", 0)
	})

	t.Run("upload error", func(t *testing.T) {
		images := new(mocks.MockImageGenerator)
		store := new(mocks.MockObjectStore)
		images.On("GenerateImage", mock.Anything, mock.Anything).Return(pngHeader, nil).Once()
		store.On("Put", mock.Anything, "b", "s1/1.png", pngHeader, "image/png").Return(errors.New("bucket gone")).Once()

		_, err := service.NewIllustrator(images, store, "b", time.Hour, zap.NewNop()).Illustrate(ctx, "s1", 1, "", "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s1/1.png")
		store.AssertNumberOfCalls(t, "SignedURL", 0)
	})
}

func TestNarrator_StoresAudioAndTimestamps(t *testing.T) {
	ctx := context.Background()
	store, root := newLocalStore(t)
	audio := []byte("ID3fake-mp3")
	timings := []models.WordTiming{{Word: "Mira", Start: 0, End: 0.4}, {Word: "rode", Start: 0.4, End: 0.7}}

	speech := new(mocks.MockSpeechClient)
	speech.On("Synthesize", mock.Anything, "Mira rode.").Return(audio, nil).Once()
	speech.On("Align", mock.Anything, audio).Return(timings, nil).Once()

	res, err := service.NewNarrator(speech, store, "audio", time.Hour, zap.NewNop()).Narrate(ctx, "s1", 1, "Mira rode.")
	require.NoError(t, err)
	assert.Equal(t, "/files/audio/s1/1.mp3", linkPath(t, res.AudioURL))
	assert.Equal(t, "/files/audio/s1/1_timestamps.json", linkPath(t, res.TimestampsURL))

	stored, err := os.ReadFile(filepath.Join(root, "audio", "s1", "1.mp3"))
	require.NoError(t, err)
	assert.Equal(t, audio, stored)

	raw, err := os.ReadFile(filepath.Join(root, "audio", "s1", "1_timestamps.json"))
	require.NoError(t, err)
	var decoded []models.WordTiming
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, timings, decoded)
	speech.AssertExpectations(t)
}

func TestNarrator_Failures(t *testing.T) {
	ctx := context.Background()
	audio := []byte("ID3fake-mp3")

	t.Run("tts error", func(t *testing.T) {
		speech := new(mocks.MockSpeechClient)
		store := new(mocks.MockObjectStore)
		speech.On("Synthesize", mock.Anything, "text").Return(nil, models.ErrUpstreamUnavailable).Once()

		res, err := service.NewNarrator(speech, store, "audio", time.Hour, zap.NewNop()).Narrate(ctx, "s1", 1, "text")
		require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
		assert.Equal(t, service.NarrationResult{}, res)
		speech.AssertNumberOfCalls(t, "Align", 0)
		store.AssertNumberOfCalls(t, "Put", 0)
	})

	t.Run("alignment error returns no links", func(t *testing.T) {
		speech := new(mocks.MockSpeechClient)
		store := new(mocks.MockObjectStore)
		speech.On("Synthesize", mock.Anything, "text").Return(audio, nil).Once()
		store.On("Put", mock.Anything, "audio", "s1/3.mp3", audio, "audio/mpeg").Return(nil).Once()
		speech.On("Align", mock.Anything, audio).Return(nil, errors.New("whisper down")).Once()

		res, err := service.NewNarrator(speech, store, "audio", time.Hour, zap.NewNop()).Narrate(ctx, "s1", 3, "text")
		require.Error(t, err)
		assert.Empty(t, res.AudioURL)
		assert.Empty(t, res.TimestampsURL)
		store.AssertNumberOfCalls(t, "SignedURL", 0)
		store.AssertExpectations(t)
	})

	t.Run("signing error", func(t *testing.T) {
		speech := new(mocks.MockSpeechClient)
		store := new(mocks.MockObjectStore)
		speech.On("Synthesize", mock.Anything, "text").Return(audio, nil).Once()
		speech.On("Align", mock.Anything, audio).Return([]models.WordTiming{{Word: "text", End: 1}}, nil).Once()
		store.On("Put", mock.Anything, "audio", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()
		store.On("SignedURL", mock.Anything, "audio", "s1/1.mp3", time.Hour).Return("", storage.ErrObjectMissing).Once()

		_, err := service.NewNarrator(speech, store, "audio", time.Hour, zap.NewNop()).Narrate(ctx, "s1", 1, "text")
		require.ErrorIs(t, err, storage.ErrObjectMissing)
	})
}
