package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alphagov/rummager/internal/domain"
	"github.com/alphagov/rummager/internal/searchparams"
	documentuc "github.com/alphagov/rummager/internal/usecase/document"
	searchuc "github.com/alphagov/rummager/internal/usecase/search"
)

// Server exposes the search and document APIs over HTTP.
type Server struct {
	search        *searchuc.Service
	documents     *documentuc.Service
	parser        *searchparams.Parser
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, documents *documentuc.Service, parser *searchparams.Parser, logger *zap.Logger) *Server {
	s := &Server{
		search:    search,
		documents: documents,
		parser:    parser,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		fieldErrorHandler,
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrIndexLocked, http.StatusLocked, codeIndexLocked),
		invalidQueryHandler,
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusBadGateway, codeEngineError),
	}
	return s
}

// Routes registers the API endpoints on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search", s.Search)
	r.Get("/healthcheck", s.Healthcheck)
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.AddDocuments)
		r.Get("/*", s.GetDocument)
		r.Post("/*", s.AmendDocument)
		r.Delete("/*", s.DeleteDocument)
	})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	p, err := s.parser.Parse(r.URL.Query())
	if err != nil {
		var validation *searchparams.ValidationError
		if errors.As(err, &validation) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"code":    codeValidationFailed,
				"message": "invalid search parameters",
				"errors":  validation.Problems,
			})
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid search parameters")
		return
	}

	body, err := s.search.Run(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// GetDocument handles GET /documents/{link}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), documentLink(r))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.ToWire())
}

// AddDocuments handles POST /documents. The body is one document object
// or an array of them.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	var wireDocs []map[string]any
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &wireDocs); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
			return
		}
	} else {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
			return
		}
		wireDocs = []map[string]any{doc}
	}

	if err := s.documents.Add(r.Context(), wireDocs); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
}

// AmendDocument handles POST /documents/{link} with form-encoded field
// updates.
func (s *Server) AmendDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, codeBadRequest,
			"amendments require application/x-www-form-urlencoded data")
		return
	}

	updates := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		updates[key] = r.PostForm.Get(key)
	}

	if err := s.documents.Amend(r.Context(), documentLink(r), updates); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
}

// DeleteDocument handles DELETE /documents/{link}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), documentLink(r)); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
}

// Healthcheck handles GET /healthcheck.
func (s *Server) Healthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// documentLink extracts the document identity from the wildcard path
// segment. Links carry their leading slash in the route remainder.
func documentLink(r *http.Request) string {
	return chi.URLParam(r, "*")
}
