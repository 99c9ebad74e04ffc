package domain

import "time"

// GestureKind identifies a discrete head gesture.
type GestureKind string

const (
	GestureNod       GestureKind = "nod"
	GestureDoubleNod GestureKind = "double_nod"
	GestureShake     GestureKind = "shake"
)

// GesturePhase is the state of one gesture machine.
type GesturePhase string

const (
	PhaseIdle  GesturePhase = "idle"
	PhaseDown  GesturePhase = "down"
	PhaseUp    GesturePhase = "up"
	PhaseLeft  GesturePhase = "left"
	PhaseRight GesturePhase = "right"
	PhaseLeft2 GesturePhase = "left2"
)

// MotionSample is one orientation-delta reading from the head-motion sensor.
// A positive PitchRate means the head moves down; a positive YawRate means it turns left.
type MotionSample struct {
	At        time.Time `json:"at"`
	PitchRate float64   `json:"pitch_rate"`
	YawRate   float64   `json:"yaw_rate"`
}

// GestureEvent is emitted by the recognizer when a gesture completes.
type GestureEvent struct {
	Kind GestureKind `json:"kind"`
	At   time.Time   `json:"at"`
}
