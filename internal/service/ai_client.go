package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
)

// Цены gpt-4o за 1М токенов, USD. Для ollama стоимость 0.
const (
	pricePerMillionInputTokensUSD  = 2.5
	pricePerMillionOutputTokensUSD = 10.0
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storybook_ai_requests_total",
			Help: "Total number of requests to the text generation API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storybook_ai_request_duration_seconds",
			Help:    "Histogram of text generation request durations.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"model"},
	)
	aiTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storybook_ai_tokens",
			Help:    "Histogram of token counts per request.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64 .. 32768
		},
		[]string{"model", "kind"}, // kind: prompt | completion
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storybook_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of text generation requests in USD.",
		},
		[]string{"model"},
	)
)

// GenerationParams - параметры одного запроса. Указатели отличают 0 от "не задано".
type GenerationParams struct {
	Model       string // пусто = модель клиента по умолчанию
	Temperature *float64
	MaxTokens   *int
	JSONMode    bool // просить у провайдера строго JSON объект
}

// UsageInfo - токены и оценочная стоимость запроса.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
	Estimated        bool // провайдер не вернул usage, посчитано tiktoken
}

//go:generate mockery --name AIClient --output ../mocks --outpkg mocks

// AIClient - текстовая LLM. Ошибки транспорта оборачивают models.ErrUpstreamUnavailable.
// Повторов нет: один вызов = один запрос к провайдеру.
type AIClient interface {
	GenerateText(ctx context.Context, userID, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error)
}

func calculateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*pricePerMillionInputTokensUSD/1_000_000.0 +
		float64(completionTokens)*pricePerMillionOutputTokensUSD/1_000_000.0
}

// estimateTokens считает токены tiktoken'ом, если модель известна.
func estimateTokens(model string, texts ...string) (int, bool) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, false
		}
	}
	total := 0
	for _, t := range texts {
		total += len(enc.Encode(t, nil, nil))
	}
	return total, true
}

func observeUsage(model string, usage UsageInfo) {
	if usage.TotalTokens <= 0 {
		return
	}
	aiTokens.WithLabelValues(model, "prompt").Observe(float64(usage.PromptTokens))
	aiTokens.WithLabelValues(model, "completion").Observe(float64(usage.CompletionTokens))
	if usage.EstimatedCostUSD > 0 {
		aiEstimatedCostUSD.WithLabelValues(model).Add(usage.EstimatedCostUSD)
	}
}

// --- OpenAI ---

type openAIClient struct {
	client  *openaigo.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func (c *openAIClient) GenerateText(ctx context.Context, userID, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}
	model := c.model
	if params.Model != "" {
		model = params.Model
	}
	log := c.logger.With(zap.String("model", model), zap.String("user_id", userID))

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(model, "error").Inc()
		return "", usage, errors.New("system prompt is empty")
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: userInput})
	}

	req := openaigo.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: intVal(params.MaxTokens),
	}
	if params.Temperature != nil {
		req.Temperature = float32(*params.Temperature)
	}
	if params.JSONMode {
		req.ResponseFormat = &openaigo.ChatCompletionResponseFormat{Type: openaigo.ChatCompletionResponseFormatTypeJSONObject}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	log.Debug("Sending chat completion request",
		zap.Int("system_prompt_bytes", len(systemPrompt)),
		zap.Int("user_input_bytes", len(userInput)),
		zap.Bool("json_mode", params.JSONMode))

	resp, err := c.client.CreateChatCompletion(reqCtx, req)
	duration := time.Since(start)
	aiRequestDuration.WithLabelValues(model).Observe(duration.Seconds())

	if err != nil {
		aiRequestsTotal.WithLabelValues(model, "error").Inc()
		log.Error("Chat completion failed", zap.Duration("duration", duration), zap.Error(err))
		return "", usage, fmt.Errorf("%w: openai chat completion: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.WithLabelValues(model, "error_empty_response").Inc()
		log.Warn("Chat completion returned empty response", zap.Duration("duration", duration))
		return "", usage, fmt.Errorf("%w: empty completion", models.ErrInvalidGenerationOutput)
	}

	text := resp.Choices[0].Message.Content
	aiRequestsTotal.WithLabelValues(model, "success").Inc()

	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
	} else if promptTokens, ok := estimateTokens(model, systemPrompt, userInput); ok {
		completionTokens, _ := estimateTokens(model, text)
		usage.PromptTokens = promptTokens
		usage.CompletionTokens = completionTokens
		usage.TotalTokens = promptTokens + completionTokens
		usage.Estimated = true
	}
	usage.EstimatedCostUSD = calculateCost(usage.PromptTokens, usage.CompletionTokens)
	observeUsage(model, usage)

	log.Info("Chat completion received",
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(text)),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Bool("usage_estimated", usage.Estimated),
		zap.Float64("cost_usd", usage.EstimatedCostUSD))

	return text, usage, nil
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// --- Ollama ---

type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg config.AIConfig, logger *zap.Logger) (AIClient, error) {
	// api.NewClient ждёт URL без /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", baseURL, err)
	}

	logger.Info("Ollama client created", zap.String("base_url", baseURL), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))
	return &ollamaClient{
		client:  api.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, userID, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}
	model := c.model
	if params.Model != "" {
		model = params.Model
	}
	log := c.logger.With(zap.String("model", model), zap.String("user_id", userID))

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(model, "error").Inc()
		return "", usage, errors.New("system prompt is empty")
	}

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	stream := false
	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	if params.JSONMode {
		req.Format = json.RawMessage(`"json"`)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(reqCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)
	aiRequestDuration.WithLabelValues(model).Observe(duration.Seconds())

	if err != nil {
		aiRequestsTotal.WithLabelValues(model, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			log.Error("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		return "", usage, fmt.Errorf("%w: ollama chat: %v", models.ErrUpstreamUnavailable, err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty completion", models.ErrInvalidGenerationOutput)
	}

	aiRequestsTotal.WithLabelValues(model, "success").Inc()
	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	observeUsage(model, usage)

	log.Info("Ollama response received",
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(resp.Message.Content)),
		zap.Int("total_tokens", usage.TotalTokens))
	return resp.Message.Content, usage, nil
}

// NewAIClient выбирает реализацию по AI_CLIENT_TYPE.
func NewAIClient(cfg config.AIConfig, logger *zap.Logger) (AIClient, error) {
	logger = logger.Named("AIClient")
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		oaCfg := openaigo.DefaultConfig(cfg.APIKey)
		oaCfg.BaseURL = cfg.BaseURL
		oaCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		logger.Info("OpenAI client created", zap.String("base_url", cfg.BaseURL), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))
		return &openAIClient{
			client:  openaigo.NewClientWithConfig(oaCfg),
			model:   cfg.Model,
			timeout: cfg.Timeout,
			logger:  logger,
		}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: %q", cfg.ClientType)
	}
}
