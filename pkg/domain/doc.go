/*
Package domain contains the core types shared by every facet package.

It defines the vocabulary of the attribute state machine: branch names,
snapshots, documents, event names, lifecycle hooks and the error values
returned across the module. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - Snapshot: the {value, isSet} pair recorded for one branch of an attribute.
  - Document: the externally represented, serializable form of a model.
  - LifecycleHooks: callbacks fired on attribute changes, commits and recalculation passes.
  - ValidationError: a structured validation failure (message + classification).
*/
package domain
