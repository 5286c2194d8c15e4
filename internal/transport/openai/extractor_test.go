package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/menu"
	"github.com/kailas-cloud/menusearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterExtractionMetrics()
	os.Exit(m.Run())
}

// chatResponse mirrors the chat completions response body.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func newChatResponse(content, refusal string) chatResponse {
	resp := chatResponse{ID: "chatcmpl-1", Object: "chat.completion", Model: "gpt-4o-mini"}
	resp.Choices = make([]struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}, 1)
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.Content = content
	resp.Choices[0].Message.Refusal = refusal
	resp.Choices[0].FinishReason = "stop"
	resp.Usage.PromptTokens = 120
	resp.Usage.CompletionTokens = 30
	resp.Usage.TotalTokens = 150
	return resp
}

func newTestExtractor(url string) *Extractor {
	return NewExtractor(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestExtractor_Extract(t *testing.T) {
	const content = `{"restaurante":"Trattoria Roma","platos":[{"nombre":"Carbonara","puntuacion":8.5}],` +
		`"ubicacion":"Madrid","tipologia":"Italiana","tipo_menu":"sin restricciones","precio":18.5,"puntuacion":4.2}`

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newChatResponse(content, ""))
	}))
	defer server.Close()

	res, err := newTestExtractor(server.URL).Extract(context.Background(), "Trattoria Roma, Madrid. Carbonara 12€")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if res.Entities.Restaurant != "Trattoria Roma" || res.Entities.Cuisine != menu.Italiana {
		t.Errorf("unexpected entities: %+v", res.Entities)
	}
	if len(res.Entities.Dishes) != 1 || res.Entities.Dishes[0].Score != 8.5 {
		t.Errorf("unexpected dishes: %+v", res.Entities.Dishes)
	}
	if res.TotalTokens != 150 || res.PromptTokens != 120 || res.CompletionTokens != 30 {
		t.Errorf("unexpected usage: %+v", res)
	}

	if got["model"] != DefaultModel {
		t.Errorf("model = %v", got["model"])
	}
	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %v", got["response_format"])
	}
	schema, _ := format["json_schema"].(map[string]any)
	if schema["strict"] != true || schema["name"] != "MenuEntities" {
		t.Errorf("json_schema = %v", schema)
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	user, _ := msgs[1].(map[string]any)
	if content, _ := user["content"].(string); !strings.HasSuffix(content, "Carbonara 12€") {
		t.Errorf("user prompt does not end with the menu text: %q", content)
	}
}

func TestExtractor_NormalizesUnknownCuisine(t *testing.T) {
	const content = `{"restaurante":"X","platos":null,"ubicacion":"Y","tipologia":"Mexicana",` +
		`"tipo_menu":"vegano","precio":10,"puntuacion":3}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newChatResponse(content, ""))
	}))
	defer server.Close()

	res, err := newTestExtractor(server.URL).Extract(context.Background(), "menu")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.Entities.Cuisine != menu.Tradicional {
		t.Errorf("Cuisine = %q", res.Entities.Cuisine)
	}
	if res.Entities.Dishes == nil {
		t.Error("Dishes must not be nil")
	}
}

func TestExtractor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantMsg string
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body: map[string]any{"error": map[string]any{
				"message": "rate limit exceeded", "type": "rate_limit_error",
			}},
			wantMsg: "rate limit exceeded",
		},
		{
			name:    "refusal",
			status:  http.StatusOK,
			body:    newChatResponse("", "I cannot help with that"),
			wantMsg: "refused",
		},
		{
			name:    "invalid json content",
			status:  http.StatusOK,
			body:    newChatResponse("not json", ""),
			wantMsg: "decode entities",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}},
			wantMsg: "empty completion",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			_, err := newTestExtractor(server.URL).Extract(context.Background(), "menu")
			if !errors.Is(err, domain.ErrExtractionProviderError) {
				t.Fatalf("err = %v, want ErrExtractionProviderError", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestParseAPIError_KeepsTransportCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

	err := parseAPIError(cause)
	if !errors.Is(err, domain.ErrExtractionProviderError) {
		t.Fatalf("err = %v, want ErrExtractionProviderError", err)
	}
	if !errors.Is(err, cause) || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("cause lost: %v", err)
	}
}

func TestExtractor_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`))
	}))
	defer server.Close()

	if err := newTestExtractor(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("extractDetail = %q", got)
	}
	if got := extractDetail([]byte(`oops`)); got != "" {
		t.Errorf("extractDetail = %q", got)
	}
}
