/*
Package attribute implements the state machine of a single model attribute.

An attribute holds one canonical value, an isSet flag and a set of named
branches. Branches are snapshots of {value, isSet}:

  - domain.DefaultBranch is the last committed baseline.
  - domain.PreviousBranch holds the state right before the latest change.
  - domain.ListenBranch (nested attributes only) records the bound sub-model.

Attributes never hold a pointer to their model. Each one is built with an
Owner, a set of callbacks the model supplies to learn about changes and
commits and to schedule recalculation.

Setting nil always routes to Unset and never reaches the codec. Callers rely on
nil as the "unset" sentinel, so no attribute can store an explicit nil value.
*/
package attribute
