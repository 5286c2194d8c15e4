// Package chi exposes the search, upload and entity skill HTTP APIs.
package chi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/search/request"
	"github.com/kailas-cloud/menusearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/menusearch/internal/usecase/health"
	uploaduc "github.com/kailas-cloud/menusearch/internal/usecase/upload"
)

// DefaultMaxUploadBytes caps a multipart upload request.
const DefaultMaxUploadBytes = 16 << 20

// multipartMemory is kept in memory before spilling form files to disk.
const multipartMemory = 8 << 20

// CountSourceHeader tells clients whether "count" is the backend total or the page length.
const CountSourceHeader = "X-Count-Source"

// SearchService runs validated search requests.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

// UploadService stores menu files.
type UploadService interface {
	Upload(ctx context.Context, filename string, size int64, r io.Reader) (*uploaduc.Result, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

type homeResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Server serves the public search and upload API.
type Server struct {
	search         SearchService
	upload         UploadService
	health         HealthService
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates the search API server. maxUploadBytes <= 0 uses DefaultMaxUploadBytes.
func NewServer(search SearchService, upload UploadService, health HealthService, maxUploadBytes int64) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		search:         search,
		upload:         upload,
		health:         health,
		maxUploadBytes: maxUploadBytes,
		errorHandlers:  defaultErrorHandlers(),
	}
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Home)
	r.Get("/search", s.Search)
	r.Post("/upload", s.Upload)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, homeResponse{
		Status:  "ok",
		Message: "API de búsqueda de restaurantes activa",
		Endpoints: map[string]string{
			"search": "/search?search=<términos>",
			"upload": "/upload",
		},
	})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r.URL.Query())
	if err != nil {
		handleError(s.errorHandlers, w, r, err)
		return
	}

	req, err := request.New(params)
	if err != nil {
		handleError(s.errorHandlers, w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		handleError(s.errorHandlers, w, r, err)
		return
	}

	source := "page"
	if resp.CountExact {
		source = "backend"
	}
	w.Header().Set(CountSourceHeader, source)
	writeJSON(w, http.StatusOK, resp)
}

// searchParams reads query parameters. Blank values count as absent;
// numeric filters must parse as numbers.
func searchParams(q url.Values) (request.Params, error) {
	present := make(url.Values, len(q))
	for k, vs := range q {
		if len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
			present[k] = []string{strings.TrimSpace(vs[0])}
		}
	}

	p := request.Params{
		Query:   present.Get("search"),
		Facet:   present.Get("facet"),
		Cuisine: present.Get("tipologia"),
		Sort:    present.Get("sort"),
	}
	if err := runtime.BindQueryParameter("form", true, false, "puntuacion", present, &p.MinRating); err != nil {
		return request.Params{}, fmt.Errorf("%w: puntuacion must be a number", domain.ErrInvalidQuery)
	}
	if err := runtime.BindQueryParameter("form", true, false, "precio", present, &p.MaxPrice); err != nil {
		return request.Params{}, fmt.Errorf("%w: precio must be a number", domain.ErrInvalidQuery)
	}
	return p, nil
}

// Upload handles POST /upload (multipart, field "file").
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(s.errorHandlers, w, r,
				fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidUpload, s.maxUploadBytes))
			return
		}
		handleError(s.errorHandlers, w, r, fmt.Errorf("%w: no file selected", domain.ErrInvalidUpload))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(s.errorHandlers, w, r, fmt.Errorf("%w: no file selected", domain.ErrInvalidUpload))
		return
	}
	defer file.Close()

	res, err := s.upload.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		handleError(s.errorHandlers, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, s.health.Check(r.Context()))
}

func writeHealth(w http.ResponseWriter, report healthuc.Report) {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}
