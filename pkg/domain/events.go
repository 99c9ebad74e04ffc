package domain

import (
	"context"
	"time"
)

// StepStatus is the outcome of one executed intent.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
	StepCancelled StepStatus = "cancelled"
)

// CommandEvent is published after an utterance was interpreted.
type CommandEvent struct {
	SessionID       string
	Command         ParsedCommand
	WakeDetected    bool
	MacroExpansions int
}

// StepEvent describes one executor step.
type StepEvent struct {
	SessionID   string
	ExecutionID string
	Index       int
	Intent      Intent
	Status      StepStatus // Empty on OnStepStart
	Err         error
	Duration    time.Duration
}

// DisplayEvent is published when the display state changes.
type DisplayEvent struct {
	SessionID string       `json:"session_id,omitempty"`
	From      DisplayState `json:"from"`
	To        DisplayState `json:"to"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnCommand       func(context.Context, *CommandEvent)
	OnStepStart     func(context.Context, *StepEvent)
	OnStepFinish    func(context.Context, *StepEvent)
	OnGesture       func(context.Context, *GestureEvent)
	OnDisplayChange func(context.Context, *DisplayEvent)
}
