/*
Package ports defines the driven ports (interfaces) for the MDX Vision command engine.

These interfaces decouple the core logic from external implementations, allowing
the macro registry and the session manager to work with various storage backends.

# Key Interfaces

  - MacroStore: Persists user macros across restarts (get/put/delete/list).
  - DistributedLocker: Provides distributed locking for registry writes shared by several replicas.
*/
package ports
