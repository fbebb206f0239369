// Package registry maps hook names referenced from schema files to Go code:
// derivations, validators and custom codecs.
package registry
