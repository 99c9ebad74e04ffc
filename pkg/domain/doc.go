/*
Package domain contains the core domain models shared by every component of the
MDX Vision command engine.

It defines the closed Intent vocabulary, the parsed command envelope, macros,
gesture events and motion samples, display states and the lifecycle hooks used
for observability. This package is kept pure and free of I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Intent: A closed sum type with one struct per recognized action (LoadPatient, ShowSection, ...).
  - ParsedCommand: The ordered intents extracted from one utterance plus the text they came from.
  - Macro: A user-defined trigger phrase bound to an ordered list of intents.
  - MotionSample / GestureEvent: Input and output of the gesture recognizer.
  - DisplayState: Hidden, Compact or Expanded.
*/
package domain
