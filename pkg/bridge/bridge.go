package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
)

// Message types.
const (
	TypeTranscript = "transcript"
	TypeSample     = "sample"
	TypeFinish     = "finish"
	TypeDisplay    = "display"
	TypeResult     = "result"

	TypeCommand = "command"
	TypeIntent  = "intent"
	TypeReport  = "report"
	TypeGesture = "gesture"
	TypeError   = "error"
)

// ErrClosed is returned when the stream ends while an intent awaits its result.
var ErrClosed = errors.New("bridge: stream closed while awaiting result")

// Message is one inbound line.
type Message struct {
	Type     string               `json:"type"`
	Text     string               `json:"text,omitempty"`
	Language string               `json:"language,omitempty"`
	Sample   *domain.MotionSample `json:"sample,omitempty"`
	At       time.Time            `json:"at,omitempty"`
	Action   string               `json:"action,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Event is one outbound line.
type Event struct {
	Type    string                 `json:"type"`
	Command *domain.ParsedCommand  `json:"command,omitempty"`
	Step    int                    `json:"step,omitempty"`
	Intent  *domain.IntentEnvelope `json:"intent,omitempty"`
	Report  *executor.Report       `json:"report,omitempty"`
	Gesture *domain.GestureEvent   `json:"gesture,omitempty"`
	Display *domain.DisplayEvent   `json:"display,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Bridge implements the JSON-Lines protocol.
type Bridge struct {
	reader        *bufio.Reader
	mu            sync.Mutex
	encoder       *json.Encoder
	logger        *slog.Logger
	maxTranscript int

	eng  *mdxvision.Engine
	step int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithMaxTranscript bounds accepted transcripts in bytes.
func WithMaxTranscript(n int) Option {
	return func(b *Bridge) { b.maxTranscript = n }
}

// New creates a bridge reading r and writing w.
func New(r io.Reader, w io.Writer, opts ...Option) *Bridge {
	b := &Bridge{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Hooks forwards gestures and display changes to the host. Pass them to the
// engine the bridge will serve.
func (b *Bridge) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGesture: func(_ context.Context, e *domain.GestureEvent) {
			ev := *e
			b.emit(Event{Type: TypeGesture, Gesture: &ev})
		},
		OnDisplayChange: func(_ context.Context, e *domain.DisplayEvent) {
			ev := *e
			b.emit(Event{Type: TypeDisplay, Display: &ev})
		},
	}
}

// Bindings asks the host to perform every intent and waits for its result
// line. Macro definitions stay with the engine's registry.
func (b *Bridge) Bindings() executor.Bindings {
	return executor.Bindings{
		Default: func(ctx context.Context, it domain.Intent) error {
			b.step++
			env := domain.ToEnvelope(it)
			b.emit(Event{Type: TypeIntent, Step: b.step, Intent: &env})

			res, err := b.awaitResult(ctx)
			if err != nil {
				return err
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			return nil
		},
	}
}

// Serve processes messages until EOF or cancellation.
func (b *Bridge) Serve(ctx context.Context, eng *mdxvision.Engine) error {
	b.eng = eng
	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, err := b.read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch msg.Type {
		case TypeTranscript:
			b.transcript(ctx, msg)
		case TypeResult:
			b.emitError("unexpected result: no intent is pending")
		default:
			b.dispatch(ctx, msg)
		}
	}
}

func (b *Bridge) transcript(ctx context.Context, msg Message) {
	text, err := normalize.Sanitize(msg.Text, b.maxTranscript)
	if err != nil {
		b.logger.Warn("Bridge: Input rejected", "err", err, "size", len(msg.Text))
		b.emitError(err.Error())
		return
	}

	cmd := b.eng.Interpret(ctx, text, msg.Language)
	b.emit(Event{Type: TypeCommand, Command: &cmd})
	if len(cmd.Intents) == 0 {
		return
	}

	b.step = 0
	report, err := b.eng.Execute(ctx, cmd, b.Bindings())
	ev := Event{Type: TypeReport, Report: &report}
	if err != nil {
		ev.Error = err.Error()
	}
	b.emit(ev)
}

// dispatch handles messages that may arrive at any time, including while an
// intent awaits its result.
func (b *Bridge) dispatch(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeSample:
		if msg.Sample == nil {
			b.emitError("sample message without sample")
			return
		}
		b.eng.HandleSample(ctx, *msg.Sample)
	case TypeFinish:
		at := msg.At
		if at.IsZero() {
			at = time.Now()
		}
		b.eng.FinishGesture(ctx, at)
	case TypeDisplay:
		if _, ok := b.eng.Display().Apply(msg.Action); !ok {
			b.emitError(fmt.Sprintf("unknown display action %q", msg.Action))
		}
	default:
		b.emitError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (b *Bridge) awaitResult(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		msg, err := b.read()
		if errors.Is(err, io.EOF) {
			return Message{}, ErrClosed
		}
		if err != nil {
			return Message{}, err
		}
		switch msg.Type {
		case TypeResult:
			return msg, nil
		case TypeTranscript:
			b.emitError("busy: a command is executing")
		default:
			b.dispatch(ctx, msg)
		}
	}
}

// read returns the next non-blank line. Lines that are not JSON objects
// become transcripts.
func (b *Bridge) read() (Message, error) {
	for {
		line, err := b.reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			if err != nil {
				return Message{}, err
			}
			continue
		}
		if !strings.HasPrefix(text, "{") {
			return Message{Type: TypeTranscript, Text: text}, nil
		}
		var msg Message
		if jsonErr := json.Unmarshal([]byte(text), &msg); jsonErr != nil {
			b.emitError("invalid message: " + jsonErr.Error())
			if err != nil {
				return Message{}, err
			}
			continue
		}
		return msg, nil
	}
}

func (b *Bridge) emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.encoder.Encode(ev); err != nil {
		b.logger.Error("Bridge: failed to write event", "type", ev.Type, "err", err)
	}
}

func (b *Bridge) emitError(msg string) {
	b.emit(Event{Type: TypeError, Error: msg})
}
