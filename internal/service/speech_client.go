package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
)

//go:generate mockery --name SpeechClient --output ../mocks --outpkg mocks

// SpeechClient озвучивает текст и размечает по словам уже готовое аудио.
type SpeechClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Align(ctx context.Context, audio []byte) ([]models.WordTiming, error)
}

type openAISpeechClient struct {
	client             *openaigo.Client
	ttsModel           string
	voice              string
	transcriptionModel string
	timeout            time.Duration
	logger             *zap.Logger
}

// NewSpeechClient - TTS и транскрипция идут через OpenAI совместимый API.
func NewSpeechClient(cfg config.SpeechConfig, apiKey, baseURL string, logger *zap.Logger) SpeechClient {
	oaCfg := openaigo.DefaultConfig(apiKey)
	if baseURL != "" {
		oaCfg.BaseURL = baseURL
	}
	oaCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &openAISpeechClient{
		client:             openaigo.NewClientWithConfig(oaCfg),
		ttsModel:           cfg.TTSModel,
		voice:              cfg.Voice,
		transcriptionModel: cfg.TranscriptionModel,
		timeout:            cfg.Timeout,
		logger:             logger.Named("SpeechClient"),
	}
}

// Synthesize возвращает mp3.
func (c *openAISpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateSpeech(reqCtx, openaigo.CreateSpeechRequest{
		Model:          openaigo.SpeechModel(c.ttsModel),
		Input:          text,
		Voice:          openaigo.SpeechVoice(c.voice),
		ResponseFormat: openaigo.SpeechResponseFormatMp3,
	})
	if err != nil {
		c.logger.Error("Speech synthesis failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("%w: openai speech: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read speech audio: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: speech audio is empty", models.ErrInvalidGenerationOutput)
	}
	c.logger.Debug("Speech synthesized", zap.Duration("duration", time.Since(start)), zap.Int("bytes", len(audio)))
	return audio, nil
}

// Align транскрибирует аудио с таймкодами слов (verbose_json, granularity=word).
func (c *openAISpeechClient) Align(ctx context.Context, audio []byte) ([]models.WordTiming, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateTranscription(reqCtx, openaigo.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: "narration.mp3",
		Reader:   bytes.NewReader(audio),
		Format:   openaigo.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openaigo.TranscriptionTimestampGranularity{
			openaigo.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		c.logger.Error("Transcription failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("%w: openai transcription: %v", models.ErrUpstreamUnavailable, err)
	}

	timings := make([]models.WordTiming, 0, len(resp.Words))
	for _, w := range resp.Words {
		timings = append(timings, models.WordTiming{Word: w.Word, Start: w.Start, End: w.End})
	}
	if len(timings) == 0 {
		return nil, fmt.Errorf("%w: transcription returned no words", models.ErrInvalidGenerationOutput)
	}
	c.logger.Debug("Audio aligned", zap.Duration("duration", time.Since(start)), zap.Int("words", len(timings)))
	return timings, nil
}
