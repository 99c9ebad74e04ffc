package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager fans events out to the SSE subscribers of each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager returns a StreamManager with no subscribers.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logging.NewNop(),
	}
}

// SetLogger replaces the logger.
func (sm *StreamManager) SetLogger(logger *slog.Logger) {
	sm.logger = logger
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Publish encodes payload as JSON and broadcasts it.
func (sm *StreamManager) Publish(sessionID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: Encode failed", "session_id", sessionID, "event", event, "err", err)
		return
	}
	sm.Broadcast(sessionID, Message{Event: event, Data: string(data)})
}

// Broadcast sends msg to every subscriber of sessionID without blocking.
func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// StepView is the "step" event payload.
type StepView struct {
	ExecutionID string                `json:"execution_id"`
	Index       int                   `json:"index"`
	Intent      domain.IntentEnvelope `json:"intent"`
	Status      domain.StepStatus     `json:"status"`
	Error       string                `json:"error,omitempty"`
	DurationMs  int64                 `json:"duration_ms"`
}

// Hooks publishes interpreted commands, finished steps and display
// transitions of labelled sessions.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, ev *domain.CommandEvent) {
			if ev.SessionID != "" {
				sm.Publish(ev.SessionID, "command", ev.Command)
			}
		},
		OnStepFinish: func(_ context.Context, ev *domain.StepEvent) {
			if ev.SessionID == "" {
				return
			}
			view := StepView{
				ExecutionID: ev.ExecutionID,
				Index:       ev.Index,
				Intent:      domain.ToEnvelope(ev.Intent),
				Status:      ev.Status,
				DurationMs:  ev.Duration.Milliseconds(),
			}
			if ev.Err != nil {
				view.Error = ev.Err.Error()
			}
			sm.Publish(ev.SessionID, "step", view)
		},
		OnDisplayChange: func(_ context.Context, ev *domain.DisplayEvent) {
			if ev.SessionID != "" {
				sm.Publish(ev.SessionID, "display", ev)
			}
		},
	}
}
