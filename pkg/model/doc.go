/*
Package model implements observable, versioned models built from attributes.

A Model owns an ordered set of attributes described by a Definition. Every
public operation runs to completion on the calling goroutine: changes made
while an operation is in progress only mark a recalculation as pending, and the
pass runs once the outermost operation returns. A pass evaluates every derived
attribute in dependency order and repeats until nothing changes.

Models are not safe for concurrent use. Use package session to serialize access
to shared, persisted records.

# Events

  - "change" and "change:<attr>" after an attribute changed.
  - "[branch:]commit:<attr>" after an attribute was committed to a branch.
  - "[branch:]commit" after Commit committed at least one attribute.
  - "calculate" after every recalculation pass settles.
  - "destruct" after Remove or Destroy.
*/
package model
