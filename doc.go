/*
Package facet builds observable, versioned attribute models.

A model is a named set of typed attributes. Every attribute canonicalizes the
values written to it through a codec, keeps named snapshots ("branches") that
can be committed and reverted, and notifies listeners through a per-model
event bus. Derived attributes are recomputed by a run-to-completion engine
whenever one of their dependencies changes, so reads after a write always
observe a settled model.

# Concept

Definitions are compiled once, from a YAML schema (Open) or from Go code
(pkg/dsl with NewCatalog), and instantiated many times. Persistent
definitions carry an "id" attribute and are saved through a ports.Storage
(memory, file or redis adapters). The session manager serializes concurrent
updates of the same record, optionally across processes.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/facet"
		"github.com/aretw0/facet/pkg/adapters/memory"
	)

	func main() {
		catalog, err := facet.Open("./people.yaml", facet.WithStorage(memory.NewStore()))
		if err != nil {
			log.Fatal(err)
		}

		person, err := catalog.New("person", map[string]any{"first": "Grace"})
		if err != nil {
			log.Fatal(err)
		}
		full, _ := person.Get("full")
		fmt.Println(full)

		// Snapshot, change and roll back.
		person.Commit("")
		_ = person.Set("first", "Ada")
		fmt.Println(person.Changes(""))
		person.Revert("")

		if err := person.Save(context.Background()); err != nil {
			log.Fatal(err)
		}
	}
*/
package facet
