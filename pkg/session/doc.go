/*
Package session serializes access to persisted records.

A Manager binds one persistent model definition to a storage. Every operation
on an existing record runs under a per-id lock: an in-process mutex, plus an
optional distributed lock when records are shared by several replicas.
Read-modify-write cycles (Update) are therefore never interleaved.
*/
package session
