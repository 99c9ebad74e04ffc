/*
Package observability turns engine lifecycle events into metrics and logs.

Every helper returns a domain.LifecycleHooks value, so metrics, logging and
application callbacks can be stacked with Combine and handed to the engine
as one set of hooks.
*/
package observability
