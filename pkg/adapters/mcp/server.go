package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/parser"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

// DefaultSessionID is used when a tool call names no device session.
const DefaultSessionID = "mcp"

// CommandResult is the structured output of interpret_command.
type CommandResult struct {
	Intents        []domain.IntentEnvelope `json:"intents" jsonschema_description:"Ordered intents, each with a kind and its parameters"`
	NormalizedText string                  `json:"normalized_text" jsonschema_description:"Canonical English text the intents were parsed from"`
	OriginalText   string                  `json:"original_text"`
	Language       string                  `json:"language"`
	Recognized     bool                    `json:"recognized" jsonschema_description:"False when every segment was unknown"`
}

// MacroView is one macro in list_macros.
type MacroView struct {
	Trigger   string                  `json:"trigger"`
	Actions   []domain.IntentEnvelope `json:"actions"`
	CreatedAt time.Time               `json:"created_at"`
}

// MacroList is the structured output of list_macros.
type MacroList struct {
	Macros []MacroView `json:"macros"`
}

// InterpretArgs are the arguments of interpret_command.
type InterpretArgs struct {
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NormalizeArgs are the arguments of normalize_text.
type NormalizeArgs struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// SessionArgs select a device session.
type SessionArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// Server exposes the command engine as MCP tools.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer registers the engine tools and resources on a fresh MCP server.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("mdxvision-mcp", mdxvision.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over server-sent events on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	interpretTool := mcp.NewTool("interpret_command",
		mcp.WithDescription("Interpret a finalized clinician voice transcript into ordered intents. Nothing is executed."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The transcript, e.g. 'hey mdx load patient 12724066 then show vitals'")),
		mcp.WithString("language", mcp.Description("Language code of the transcript (en, es, fr, de, pt). Defaults to en.")),
		mcp.WithString("session_id", mcp.Description("Device session whose macros apply (optional)")),
		mcp.WithOutputSchema[CommandResult](),
	)
	s.mcpServer.AddTool(interpretTool, mcp.NewStructuredToolHandler(s.handleInterpret))

	normalizeTool := mcp.NewTool("normalize_text",
		mcp.WithDescription("Show how a transcript is normalized: wake phrase removal, vendor-name corrections and translation to English."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The transcript")),
		mcp.WithString("language", mcp.Description("Language code of the transcript. Defaults to en.")),
		mcp.WithOutputSchema[normalize.Result](),
	)
	s.mcpServer.AddTool(normalizeTool, mcp.NewStructuredToolHandler(s.handleNormalize))

	listTool := mcp.NewTool("list_macros",
		mcp.WithDescription("List the voice macros available to a device session."),
		mcp.WithString("session_id", mcp.Description("Device session (optional)")),
		mcp.WithOutputSchema[MacroList](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListMacros))
}

func (s *Server) handleInterpret(ctx context.Context, _ mcp.CallToolRequest, args InterpretArgs) (CommandResult, error) {
	clean, err := normalize.Sanitize(args.Text, 0)
	if err != nil {
		s.logger.Warn("MCP Interpret: Input rejected", "err", err, "size", len(args.Text))
		return CommandResult{}, fmt.Errorf("input rejected: %w", err)
	}
	if clean == "" {
		return CommandResult{}, errors.New("text is required")
	}

	var cmd domain.ParsedCommand
	err = s.sessions.WithLock(ctx, sessionOrDefault(args.SessionID), func(ctx context.Context, eng *mdxvision.Engine) error {
		cmd = eng.Interpret(ctx, clean, args.Language)
		return nil
	})
	if err != nil {
		return CommandResult{}, fmt.Errorf("interpret failed: %w", err)
	}
	return CommandResult{
		Intents:        domain.ToEnvelopes(cmd.Intents),
		NormalizedText: cmd.NormalizedText,
		OriginalText:   cmd.OriginalText,
		Language:       cmd.Language,
		Recognized:     cmd.Recognized(),
	}, nil
}

func (s *Server) handleNormalize(ctx context.Context, _ mcp.CallToolRequest, args NormalizeArgs) (normalize.Result, error) {
	clean, err := normalize.Sanitize(args.Text, 0)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("input rejected: %w", err)
	}
	lang := args.Language
	if lang == "" {
		lang = "en"
	}
	var res normalize.Result
	err = s.sessions.WithLock(ctx, DefaultSessionID, func(_ context.Context, eng *mdxvision.Engine) error {
		res = eng.Normalizer().Analyze(clean, lang)
		return nil
	})
	return res, err
}

func (s *Server) handleListMacros(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (MacroList, error) {
	out := MacroList{Macros: []MacroView{}}
	err := s.sessions.WithLock(ctx, sessionOrDefault(args.SessionID), func(_ context.Context, eng *mdxvision.Engine) error {
		for _, m := range eng.Macros().List() {
			out.Macros = append(out.Macros, MacroView{
				Trigger:   m.Trigger,
				Actions:   domain.ToEnvelopes(m.Actions),
				CreatedAt: m.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("mdxvision://help", "Voice command reference",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "mdxvision://help",
				MIMEType: "text/markdown",
				Text:     mdxvision.HelpText,
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("mdxvision://rules", "Intent rules in priority order",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text := ""
		for i, name := range parser.RuleNames() {
			text += fmt.Sprintf("%d. %s\n", i+1, name)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: "mdxvision://rules", MIMEType: "text/plain", Text: text},
		}, nil
	})
}

func sessionOrDefault(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}
