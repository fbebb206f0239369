// Package formula compiles expression strings into attribute derivations.
//
// Two engines are available. EngineExpr (github.com/expr-lang/expr) infers the
// attributes a formula reads from its syntax tree. EngineCEL
// (github.com/google/cel-go) needs them declared with WithVariables.
//
// Every formula also sees two reserved variables: self, the current value of
// the attribute being derived, and isSet.
package formula
