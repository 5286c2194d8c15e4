// Package openai extracts menu entities through an OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/menu"
	"github.com/kailas-cloud/menusearch/internal/metrics"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "Eres un asistente que extrae datos estructurados de menús de restaurantes."

const userPromptHeader = "Eres un asistente experto en extraer información de menús de restaurantes. " +
	"Dado el siguiente texto extraído de un menú, extrae el nombre del restaurante, los platos con su " +
	"puntuación numérica, la ubicación, la tipología (Italiana, Asiatica, India, Casera o Tradicional), " +
	"el tipo de menú (ej. sin restricciones, celíaco, vegetariano, vegano), un precio numérico aproximado " +
	"y la puntuación numérica general del restaurante.\n\n" +
	"Si falta algún dato, inventa un valor plausible.\n\nTexto:\n"

// Config holds the LLM provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// Extractor calls chat completions with a strict JSON schema response format.
type Extractor struct {
	client   *openai.Client
	model    string
	provider string
	schema   *openai.ChatCompletionResponseFormat
	logger   *zap.Logger
}

// NewExtractor creates an OpenAI-compatible entity extractor.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		provider: cfg.Provider,
		schema: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "MenuEntities",
				Schema: entitiesSchema(),
				Strict: true,
			},
		},
		logger: logger,
	}
}

// Model returns the configured model name.
func (e *Extractor) Model() string { return e.model }

// Extract implements domain.EntityExtractor with transport-level metrics.
func (e *Extractor) Extract(ctx context.Context, text string) (domain.ExtractionResult, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPromptHeader + text},
		},
		Temperature:    math.SmallestNonzeroFloat32, // zero is dropped by omitempty
		ResponseFormat: e.schema,
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		e.countError("api_error")
		return domain.ExtractionResult{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		e.countError("empty_response")
		return domain.ExtractionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrExtractionProviderError)
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		e.countError("refusal")
		return domain.ExtractionResult{}, fmt.Errorf("model refused: %s: %w", msg.Refusal, domain.ErrExtractionProviderError)
	}

	var entities menu.Entities
	if err := json.Unmarshal([]byte(msg.Content), &entities); err != nil {
		e.countError("invalid_json")
		return domain.ExtractionResult{}, fmt.Errorf("decode entities: %w: %w", err, domain.ErrExtractionProviderError)
	}

	metrics.ExtractionRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.ExtractionRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		tokens := metrics.ExtractionTokensTotal
		tokens.WithLabelValues(e.provider, e.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		tokens.WithLabelValues(e.provider, e.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		tokens.WithLabelValues(e.provider, e.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.ExtractionResult{
		Entities:         entities.Normalize(),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Extractor) countError(kind string) {
	metrics.ExtractionRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
	metrics.ExtractionErrorsTotal.WithLabelValues(e.provider, e.model, kind).Inc()
}

// entitiesSchema mirrors menu.Entities. Strict mode requires every property
// to be listed as required and no additional properties.
func entitiesSchema() *jsonschema.Definition {
	cuisines := make([]string, 0, len(menu.Cuisines()))
	for _, c := range menu.Cuisines() {
		cuisines = append(cuisines, string(c))
	}

	dish := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"nombre":     {Type: jsonschema.String},
			"puntuacion": {Type: jsonschema.Number},
		},
		Required:             []string{"nombre", "puntuacion"},
		AdditionalProperties: false,
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"restaurante": {Type: jsonschema.String},
			"platos":      {Type: jsonschema.Array, Items: &dish},
			"ubicacion":   {Type: jsonschema.String},
			"tipologia":   {Type: jsonschema.String, Enum: cuisines},
			"tipo_menu":   {Type: jsonschema.String},
			"precio":      {Type: jsonschema.Number},
			"puntuacion":  {Type: jsonschema.Number},
		},
		Required: []string{
			"restaurante", "platos", "ubicacion", "tipologia", "tipo_menu", "precio", "puntuacion",
		},
		AdditionalProperties: false,
	}
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrExtractionProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrExtractionProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("completion request: %w: %w", err, wrap)
	}
	return fmt.Errorf("completion request failed: %w: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (vLLM/Nebius style gateways).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
