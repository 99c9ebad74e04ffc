package domain

import "errors"

// ErrMacroNotFound is returned when a trigger has no registered macro.
var ErrMacroNotFound = errors.New("macro not found")

// ErrReservedTrigger is returned when a macro trigger collides with a wake phrase or core keyword.
var ErrReservedTrigger = errors.New("macro trigger collides with a reserved keyword")

// ErrDuplicateTrigger is returned when a macro trigger is already registered.
var ErrDuplicateTrigger = errors.New("macro trigger already registered")

// ErrEmptyTrigger is returned when a macro trigger is blank.
var ErrEmptyTrigger = errors.New("macro trigger is empty")

// ErrEmptyMacro is returned when a macro has no actions.
var ErrEmptyMacro = errors.New("macro has no actions")

// ErrNestedMacro is returned when a macro body tries to define another macro.
var ErrNestedMacro = errors.New("macro actions cannot define macros")

// ErrNoBinding is returned when the executor reaches an intent with no bound callback.
var ErrNoBinding = errors.New("no binding for intent")

// ErrExecutionCancelled is returned when an execution stops before its last intent.
var ErrExecutionCancelled = errors.New("execution cancelled")

// ErrUnknownIntentKind is returned when decoding an intent of an unrecognized kind.
var ErrUnknownIntentKind = errors.New("unknown intent kind")
