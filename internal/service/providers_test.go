package service_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

func newOpenAIClient(t *testing.T, handler http.HandlerFunc) service.AIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := service.NewAIClient(config.AIConfig{
		ClientType: "openai",
		BaseURL:    srv.URL + "/v1",
		Model:      "gpt-4o",
		Timeout:    5 * time.Second,
		APIKey:     "test-key",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_JSONMode(t *testing.T) {
	client := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		format, _ := body["response_format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])
		assert.Len(t, body["messages"], 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"t\",\"content\":\"c\"}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	})

	text, usage, err := client.GenerateText(context.Background(), "u1", "system", "user", service.GenerationParams{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"t","content":"c"}`, text)
	assert.Equal(t, 15, usage.TotalTokens)
	assert.False(t, usage.Estimated)
}

func TestOpenAIClient_Errors(t *testing.T) {
	t.Run("provider 503 is upstream unavailable", func(t *testing.T) {
		client := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
		})
		_, _, err := client.GenerateText(context.Background(), "u1", "system", "user", service.GenerationParams{})
		require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	})

	t.Run("empty choice is invalid output", func(t *testing.T) {
		client := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"c1","choices":[]}`)
		})
		_, _, err := client.GenerateText(context.Background(), "u1", "system", "user", service.GenerationParams{})
		require.ErrorIs(t, err, models.ErrInvalidGenerationOutput)
	})

	t.Run("empty system prompt is rejected locally", func(t *testing.T) {
		called := false
		client := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
		_, _, err := client.GenerateText(context.Background(), "u1", " ", "user", service.GenerationParams{})
		require.Error(t, err)
		assert.False(t, called)
	})
}

func TestOllamaClient_JSONFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "json", body["format"])
		assert.Equal(t, false, body["stream"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"{\"title\":\"t\",\"content\":\"c\"}"},"done":true,"prompt_eval_count":7,"eval_count":3}`+"\n")
	}))
	defer srv.Close()

	client, err := service.NewAIClient(config.AIConfig{
		ClientType: "ollama",
		BaseURL:    srv.URL + "/v1",
		Model:      "llama3",
		Timeout:    5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	text, usage, err := client.GenerateText(context.Background(), "u1", "system", "user", service.GenerationParams{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"t","content":"c"}`, text)
	assert.Equal(t, 10, usage.TotalTokens)
}

func TestNewAIClient_UnknownType(t *testing.T) {
	_, err := service.NewAIClient(config.AIConfig{ClientType: "deepseek"}, zap.NewNop())
	require.Error(t, err)
}

func TestOpenAIImageGenerator_DecodesBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "b64_json", body["response_format"])
		assert.Equal(t, "dall-e-3", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(pngHeader)}},
		})
	}))
	defer srv.Close()

	gen, err := service.NewImageGenerator(config.ImageConfig{Provider: "openai", Model: "dall-e-3", Size: "1024x1024", Timeout: 5 * time.Second}, "k", srv.URL+"/v1", zap.NewNop())
	require.NoError(t, err)

	data, err := gen.GenerateImage(context.Background(), "a knight")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSanaImageGenerator(t *testing.T) {
	t.Run("returns raw bytes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/generate", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a knight", body["prompt"])
			assert.Equal(t, "1:1", body["ratio"])
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngHeader)
		}))
		defer srv.Close()

		gen, err := service.NewImageGenerator(config.ImageConfig{Provider: "sana", SanaBaseURL: srv.URL + "/", SanaRatio: "1:1", Timeout: 5 * time.Second}, "", "", zap.NewNop())
		require.NoError(t, err)
		data, err := gen.GenerateImage(context.Background(), "a knight")
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
	})

	t.Run("non-OK status is upstream unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gpu busy", http.StatusBadGateway)
		}))
		defer srv.Close()

		gen, err := service.NewImageGenerator(config.ImageConfig{Provider: "sana", SanaBaseURL: srv.URL, Timeout: 5 * time.Second}, "", "", zap.NewNop())
		require.NoError(t, err)
		_, err = gen.GenerateImage(context.Background(), "a knight")
		require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	})
}

func TestSpeechClient(t *testing.T) {
	audio := []byte("ID3fake-mp3")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/audio/speech":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "tts-1-hd", body["model"])
			assert.Equal(t, "nova", body["voice"])
			assert.Equal(t, "mp3", body["response_format"])
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write(audio)
		case "/v1/audio/transcriptions":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", r.FormValue("model"))
			assert.Equal(t, "verbose_json", r.FormValue("response_format"))
			assert.True(t, strings.Contains(strings.Join(r.MultipartForm.Value["timestamp_granularities[]"], ","), "word"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"task":"transcribe","text":"Mira rode.","words":[{"word":"Mira","start":0,"end":0.4},{"word":"rode","start":0.4,"end":0.8}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := service.NewSpeechClient(config.SpeechConfig{
		TTSModel:           "tts-1-hd",
		Voice:              "nova",
		TranscriptionModel: "whisper-1",
		Timeout:            5 * time.Second,
	}, "k", srv.URL+"/v1", zap.NewNop())

	got, err := client.Synthesize(context.Background(), "Mira rode.")
	require.NoError(t, err)
	assert.Equal(t, audio, got)

	words, err := client.Align(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, []models.WordTiming{{Word: "Mira", Start: 0, End: 0.4}, {Word: "rode", Start: 0.4, End: 0.8}}, words)

	_, err = client.Synthesize(context.Background(), "  ")
	require.Error(t, err)
}
