/*
Package session keeps one command engine per device session.

Each pair of smart glasses talks to its own Engine, so display state, gesture
phases and in-flight executions never leak between devices. Work on a session
is serialized with reference-counted local locks and, across replicas, an
optional ports.DistributedLocker.
*/
package session
