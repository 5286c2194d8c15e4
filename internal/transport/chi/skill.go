package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/menusearch/internal/domain/menu"
	domusage "github.com/kailas-cloud/menusearch/internal/domain/usage"
	extractionuc "github.com/kailas-cloud/menusearch/internal/usecase/extraction"
)

// DefaultMaxSkillBodyBytes caps a skill batch request.
const DefaultMaxSkillBodyBytes = 32 << 20

// SkillPath is the route the indexing pipeline calls.
const SkillPath = "/api/extractMenuEntities"

// UsagePath reports LLM token consumption.
const UsagePath = "/api/usage"

// SkillService enriches skill batches.
type SkillService interface {
	Process(ctx context.Context, records []extractionuc.Record) []extractionuc.Output
}

// UsageService reports token usage.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

type skillRequest struct {
	Values *[]skillInputRecord `json:"values"`
}

type skillInputRecord struct {
	RecordID string `json:"recordId"`
	Data     struct {
		Text string `json:"text"`
	} `json:"data"`
}

type skillResponse struct {
	Values []skillOutputRecord `json:"values"`
}

type skillOutputRecord struct {
	RecordID string          `json:"recordId"`
	Data     skillOutputData `json:"data"`
	Warnings []skillMessage  `json:"warnings,omitempty"`
}

type skillOutputData struct {
	Entities menu.Entities `json:"entities"`
}

type skillMessage struct {
	Message string `json:"message"`
}

type usageResponse struct {
	Period      string      `json:"period"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	Provider    string      `json:"provider"`
	TokensUsed  int64       `json:"tokens_used"`
	Budget      usageBudget `json:"budget"`
}

type usageBudget struct {
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
	ResetsAt        time.Time `json:"resets_at"`
}

// SkillServer serves the entity extraction custom skill.
type SkillServer struct {
	skill         SkillService
	usage         UsageService
	health        HealthService
	maxBody       int64
	errorHandlers []errorHandler
}

// NewSkillServer creates the skill API server.
func NewSkillServer(skill SkillService, usage UsageService, health HealthService, maxBody int64) *SkillServer {
	if maxBody <= 0 {
		maxBody = DefaultMaxSkillBodyBytes
	}
	return &SkillServer{
		skill:         skill,
		usage:         usage,
		health:        health,
		maxBody:       maxBody,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers the skill API on r.
func (s *SkillServer) Routes(r chi.Router) {
	r.Post(SkillPath, s.ExtractMenuEntities)
	r.Get(UsagePath, s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// ExtractMenuEntities handles POST /api/extractMenuEntities.
func (s *SkillServer) ExtractMenuEntities(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No se encontró un JSON válido en la petición.")
		return
	}
	if req.Values == nil {
		writeError(w, http.StatusBadRequest, "El JSON no contiene la estructura esperada (values).")
		return
	}

	records := make([]extractionuc.Record, len(*req.Values))
	for i, v := range *req.Values {
		records[i] = extractionuc.Record{RecordID: v.RecordID, Text: v.Data.Text}
	}

	outputs := s.skill.Process(r.Context(), records)

	resp := skillResponse{Values: make([]skillOutputRecord, 0, len(outputs))}
	for _, o := range outputs {
		rec := skillOutputRecord{RecordID: o.RecordID, Data: skillOutputData{Entities: o.Entities}}
		for _, msg := range o.Warnings {
			rec.Warnings = append(rec.Warnings, skillMessage{Message: msg})
		}
		resp.Values = append(resp.Values, rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUsage handles GET /api/usage?period=day|month.
func (s *SkillServer) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		handleError(s.errorHandlers, w, r, err)
		return
	}

	rep := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageResponse{
		Period:      string(rep.Period),
		PeriodStart: rep.PeriodStart,
		PeriodEnd:   rep.PeriodEnd,
		Provider:    rep.Provider,
		TokensUsed:  rep.TokensUsed,
		Budget: usageBudget{
			TokensLimit:     rep.Budget.TokensLimit,
			TokensRemaining: rep.Budget.TokensRemaining,
			IsExhausted:     rep.Budget.IsExhausted(),
			ResetsAt:        rep.Budget.ResetsAt,
		},
	})
}

// HealthCheck handles GET /health.
func (s *SkillServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, s.health.Check(r.Context()))
}
