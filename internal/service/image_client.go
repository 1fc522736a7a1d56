package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
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

//go:generate mockery --name ImageGenerator --output ../mocks --outpkg mocks

// ImageGenerator возвращает байты картинки по текстовому промпту.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// --- OpenAI Images ---

type openAIImageGenerator struct {
	client  *openaigo.Client
	model   string
	size    string
	timeout time.Duration
	logger  *zap.Logger
}

func (g *openAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateImage(reqCtx, openaigo.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		g.logger.Error("Image generation request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("%w: openai images: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: image response has no data", models.ErrInvalidGenerationOutput)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image payload: %v", models.ErrInvalidGenerationOutput, err)
	}
	g.logger.Debug("Image generated", zap.Duration("duration", time.Since(start)), zap.Int("bytes", len(data)))
	return data, nil
}

// --- SANA ---

type sanaImageGenerator struct {
	client  *http.Client
	baseURL string
	ratio   string
	logger  *zap.Logger
}

type sanaRequest struct {
	Prompt string `json:"prompt"`
	Ratio  string `json:"ratio"`
}

// GenerateImage вызывает POST {base}/generate, сервер отвечает сырыми байтами картинки.
func (g *sanaImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(sanaRequest{Prompt: prompt, Ratio: g.ratio})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sana request: %w", err)
	}

	endpoint := g.baseURL + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sana request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("SANA request failed", zap.String("url", endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: sana: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		g.logger.Error("SANA returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", truncateBytes(data, 512)))
		return nil, fmt.Errorf("%w: sana status %d", models.ErrUpstreamUnavailable, resp.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: read sana response: %v", models.ErrUpstreamUnavailable, readErr)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: sana returned empty body", models.ErrInvalidGenerationOutput)
	}
	return data, nil
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// NewImageGenerator выбирает провайдера по IMAGE_PROVIDER.
func NewImageGenerator(cfg config.ImageConfig, apiKey, openAIBaseURL string, logger *zap.Logger) (ImageGenerator, error) {
	logger = logger.Named("ImageGenerator")
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		oaCfg := openaigo.DefaultConfig(apiKey)
		if openAIBaseURL != "" {
			oaCfg.BaseURL = openAIBaseURL
		}
		oaCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		return &openAIImageGenerator{
			client:  openaigo.NewClientWithConfig(oaCfg),
			model:   cfg.Model,
			size:    cfg.Size,
			timeout: cfg.Timeout,
			logger:  logger,
		}, nil
	case "sana":
		return &sanaImageGenerator{
			client:  &http.Client{Timeout: cfg.Timeout},
			baseURL: strings.TrimSuffix(cfg.SanaBaseURL, "/"),
			ratio:   cfg.SanaRatio,
			logger:  logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown image provider: %q", cfg.Provider)
	}
}
