// Package schema loads model definitions from YAML or JSON documents.
//
// A document names its models and lists their attributes in order:
//
//	models:
//	  person:
//	    persistent: true
//	    attributes:
//	      - name: first
//	        kind: string
//	        default: Ada
//	      - name: email
//	        kind: string
//	        validate: "omitempty,email"
//	      - name: full
//	        kind: string
//	        formula: "first + ' ' + last"
//	  team:
//	    attributes:
//	      - name: lead
//	        kind: model
//	        model: person
//
// Parse decodes the document; Compile resolves kinds, formulas, registry hooks
// and nested model references into *model.Definition values.
//
//	doc, err := schema.ParseFile("models.yaml")
//	defs, err := schema.Compile(doc, schema.WithRegistry(reg))
//	person := defs.Get("person")
//
// Structural problems are reported together as an *AggregateError.
package schema
