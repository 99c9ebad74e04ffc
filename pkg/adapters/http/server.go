package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/display"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

// Server exposes device sessions over HTTP. Intents executed on behalf of a
// device are pushed to it over the session's event stream.
type Server struct {
	Sessions      *session.Manager
	Streams       *StreamManager
	Logger        *slog.Logger
	MaxTranscript int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and stream logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// WithMaxTranscript caps the size of submitted transcripts.
func WithMaxTranscript(n int) Option {
	return func(s *Server) { s.MaxTranscript = n }
}

// WithStreams shares a stream manager, typically the one whose Hooks were
// given to the session factory.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// NewServer creates a server over the session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}
	return s
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/v1/sessions/{id}", func(r chi.Router) {
		r.Post("/interpret", s.Interpret)
		r.Post("/normalize", s.Normalize)
		r.Get("/macros", s.ListMacros)
		r.Post("/macros", s.CreateMacro)
		r.Delete("/macros/{trigger}", s.DeleteMacro)
		r.Get("/display", s.GetDisplay)
		r.Post("/display/{action}", s.ApplyDisplay)
		r.Post("/samples", s.Samples)
		r.Get("/events", s.SubscribeEvents)
		r.Delete("/", s.CloseSession)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Hooks publishes display changes to the session's event stream.
func (s *Server) Hooks() domain.LifecycleHooks {
	return s.Streams.Hooks()
}

// InterpretRequest is the body of POST /interpret.
type InterpretRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	// Execute runs the intents, pushing each one to the event stream.
	Execute bool `json:"execute,omitempty"`
}

// InterpretResponse carries the command and, when executed, the report.
type InterpretResponse struct {
	Command domain.ParsedCommand `json:"command"`
	Report  *executor.Report     `json:"report,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Interpret handles POST /v1/sessions/{id}/interpret.
func (s *Server) Interpret(w http.ResponseWriter, r *http.Request) {
	var body InterpretRequest
	if !s.decode(w, r, &body) {
		return
	}
	text, ok := s.sanitize(w, body.Text)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var resp InterpretResponse
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context, eng *mdxvision.Engine) error {
		resp.Command = eng.Interpret(ctx, text, body.Language)
		if !body.Execute {
			return nil
		}
		report, err := eng.Execute(ctx, resp.Command, s.pushBindings(id))
		resp.Report = &report
		if err != nil {
			resp.Error = err.Error()
		}
		return nil
	})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// pushBindings forwards every intent to the device. CreateMacro stays unbound
// so the engine registers it.
func (s *Server) pushBindings(sessionID string) executor.Bindings {
	return executor.Bindings{
		Default: func(_ context.Context, it domain.Intent) error {
			s.Streams.Publish(sessionID, "intent", domain.ToEnvelope(it))
			return nil
		},
	}
}

// NormalizeRequest is the body of POST /normalize.
type NormalizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Normalize handles POST /v1/sessions/{id}/normalize.
func (s *Server) Normalize(w http.ResponseWriter, r *http.Request) {
	var body NormalizeRequest
	if !s.decode(w, r, &body) {
		return
	}
	text, ok := s.sanitize(w, body.Text)
	if !ok {
		return
	}
	var res normalize.Result
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, eng *mdxvision.Engine) error {
		lang := body.Language
		if lang == "" {
			lang = "en"
		}
		res = eng.Normalizer().Analyze(text, lang)
		return nil
	})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// ListMacros handles GET /v1/sessions/{id}/macros.
func (s *Server) ListMacros(w http.ResponseWriter, r *http.Request) {
	var macros []domain.Macro
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, eng *mdxvision.Engine) error {
		macros = eng.Macros().List()
		return nil
	})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if macros == nil {
		macros = []domain.Macro{}
	}
	s.writeJSON(w, http.StatusOK, macros)
}

// MacroRequest is the body of POST /macros. The body is given either as
// spoken text or as tagged actions.
type MacroRequest struct {
	Trigger  string                  `json:"trigger"`
	Text     string                  `json:"text,omitempty"`
	Language string                  `json:"language,omitempty"`
	Actions  []domain.IntentEnvelope `json:"actions,omitempty"`
}

// CreateMacro handles POST /v1/sessions/{id}/macros.
func (s *Server) CreateMacro(w http.ResponseWriter, r *http.Request) {
	var body MacroRequest
	if !s.decode(w, r, &body) {
		return
	}
	actions, err := domain.FromEnvelopes(body.Actions)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	var created domain.Macro
	err = s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, eng *mdxvision.Engine) error {
		if body.Text != "" {
			lang := body.Language
			if lang == "" {
				lang = "en"
			}
			actions = eng.Parser().Parse(eng.Normalizer().Normalize(body.Text, lang))
		}
		if err := eng.Macros().Register(ctx, body.Trigger, actions); err != nil {
			return err
		}
		created, _ = eng.Macros().Get(body.Trigger)
		return nil
	})
	if err != nil {
		s.fail(w, macroStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// DeleteMacro handles DELETE /v1/sessions/{id}/macros/{trigger}.
func (s *Server) DeleteMacro(w http.ResponseWriter, r *http.Request) {
	trigger := chi.URLParam(r, "trigger")
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, eng *mdxvision.Engine) error {
		return eng.Macros().Delete(ctx, trigger)
	})
	if err != nil {
		s.fail(w, macroStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func macroStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrMacroNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateTrigger):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReservedTrigger), errors.Is(err, domain.ErrEmptyTrigger),
		errors.Is(err, domain.ErrEmptyMacro), errors.Is(err, domain.ErrNestedMacro):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// DisplayResponse reports the overlay state.
type DisplayResponse struct {
	State domain.DisplayState `json:"state"`
}

// GetDisplay handles GET /v1/sessions/{id}/display.
func (s *Server) GetDisplay(w http.ResponseWriter, r *http.Request) {
	s.withDisplay(w, r, func(m *display.Manager) (domain.DisplayState, bool) {
		return m.State(), true
	})
}

// ApplyDisplay handles POST /v1/sessions/{id}/display/{action}.
func (s *Server) ApplyDisplay(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	s.withDisplay(w, r, func(m *display.Manager) (domain.DisplayState, bool) {
		return m.Apply(action)
	})
}

func (s *Server) withDisplay(w http.ResponseWriter, r *http.Request, fn func(*display.Manager) (domain.DisplayState, bool)) {
	var state domain.DisplayState
	known := true
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, eng *mdxvision.Engine) error {
		state, known = fn(eng.Display())
		return nil
	})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if !known {
		s.fail(w, http.StatusNotFound, fmt.Errorf("unknown display action %q", chi.URLParam(r, "action")))
		return
	}
	s.writeJSON(w, http.StatusOK, DisplayResponse{State: state})
}

// SamplesRequest carries a burst of motion samples. FinishAt, when set, ends
// the burst after the last sample.
type SamplesRequest struct {
	Samples  []domain.MotionSample `json:"samples"`
	FinishAt *time.Time            `json:"finish_at,omitempty"`
}

// SamplesResponse lists completed gestures and the resulting display state.
type SamplesResponse struct {
	Gestures []domain.GestureEvent `json:"gestures"`
	Display  domain.DisplayState   `json:"display"`
}

// Samples handles POST /v1/sessions/{id}/samples.
func (s *Server) Samples(w http.ResponseWriter, r *http.Request) {
	var body SamplesRequest
	if !s.decode(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "id")
	resp := SamplesResponse{Gestures: []domain.GestureEvent{}}
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context, eng *mdxvision.Engine) error {
		for _, sample := range body.Samples {
			resp.Gestures = append(resp.Gestures, eng.HandleSample(ctx, sample)...)
		}
		if body.FinishAt != nil {
			resp.Gestures = append(resp.Gestures, eng.FinishGesture(ctx, *body.FinishAt)...)
		}
		resp.Display = eng.Display().State()
		return nil
	})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	for _, g := range resp.Gestures {
		s.Streams.Publish(id, "gesture", g)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// CloseSession handles DELETE /v1/sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":      "mdxvision-http",
		"version":  mdxvision.Version,
		"sessions": len(s.Sessions.List()),
	})
}

// SubscribeEvents handles GET /v1/sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) sanitize(w http.ResponseWriter, text string) (string, bool) {
	clean, err := normalize.Sanitize(text, s.MaxTranscript)
	if err != nil {
		s.Logger.Warn("Transcript rejected", "err", err, "size", len(text))
		s.fail(w, http.StatusBadRequest, err)
		return "", false
	}
	return clean, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if errors.Is(err, session.ErrEmptySessionID) {
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
