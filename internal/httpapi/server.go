package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pcer-project/pcer/internal/pcer/service"
	"github.com/pcer-project/pcer/internal/pcer/types"
)

type Dependencies struct {
	Logger       *log.Logger
	Addr         string
	Verification *service.VerificationService

	// Gates is the configured gate list, served for front-end display.
	// Verification itself does not check gate membership.
	Gates []string

	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins []string
}

type Server struct {
	httpServer   *http.Server
	logger       *log.Logger
	verification *service.VerificationService
	gates        []string
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:       d.Logger,
		verification: d.Verification,
		gates:        d.Gates,
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/gates", s.handleGates)
	r.Post("/v1/register", s.handleRegister)
	r.Post("/v1/verify/entry", s.handleVerifyEntry)
	r.Post("/v1/verify/exit", s.handleVerifyExit)
	r.Get("/v1/registrations", s.handleListRegistrations)
	r.Get("/v1/owner_history", s.handleOwnerHistory)

	handler := loggingMiddleware(d.Logger, r)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGates(w http.ResponseWriter, _ *http.Request) {
	gates := s.gates
	if gates == nil {
		gates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"gates": gates})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.verification.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "register", err)
		return
	}

	if !resp.Registered {
		// Duplicate serial: the registry is unchanged.
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVerifyEntry(w http.ResponseWriter, r *http.Request) {
	s.handleVerify(w, r, s.verification.VerifyEntry)
}

func (s *Server) handleVerifyExit(w http.ResponseWriter, r *http.Request) {
	s.handleVerify(w, r, s.verification.VerifyExit)
}

func (s *Server) handleVerify(
	w http.ResponseWriter,
	r *http.Request,
	verify func(context.Context, types.VerifyRequest) (types.VerifyResponse, error),
) {
	var req types.VerifyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := verify(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "verify", err)
		return
	}

	// Rejections are structured outcomes, not HTTP failures: the request
	// was well-formed and the state machine answered it.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("order") != "asc"

	recs, err := s.verification.ListRegistrations(r.Context(), desc)
	if err != nil {
		s.logger.Printf("list registrations error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"registrations": recs})
}

func (s *Server) handleOwnerHistory(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "missing_owner_id", "owner_id query parameter is required")
		return
	}

	entries, err := s.verification.OwnerHistory(r.Context(), ownerID)
	if err != nil {
		s.logger.Printf("owner history error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": entries})
}

// writeServiceError maps engine errors onto HTTP: validation failures are
// the caller's fault, anything else is a storage fault.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOwnerName):
		writeError(w, http.StatusBadRequest, "invalid_owner_name", err.Error())
	case errors.Is(err, service.ErrInvalidOwnerID):
		writeError(w, http.StatusBadRequest, "invalid_owner_id", err.Error())
	case errors.Is(err, service.ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, "invalid_phone", err.Error())
	case errors.Is(err, service.ErrInvalidSerial):
		writeError(w, http.StatusBadRequest, "invalid_pc_serial", err.Error())
	case errors.Is(err, service.ErrInvalidGate):
		writeError(w, http.StatusBadRequest, "invalid_gate", err.Error())
	default:
		s.logger.Printf("%s error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}
