/*
Package ports defines the driven ports (interfaces) for persisted models.

These interfaces decouple the model core from external implementations,
allowing models to be stored in memory, on disk or in Redis.

# Key Interfaces

  - Storage: Responsible for finding, inserting, updating and removing model documents.
  - DistributedLocker: Provides distributed locking for handling concurrent record access.
*/
package ports
