package model

import (
	"github.com/aretw0/facet/pkg/attribute"
)

// NestedKind returns an attribute kind holding a model of def. Sub-models
// built from plain values receive opts.
func NestedKind(def *Definition, opts ...Option) attribute.Kind {
	return attribute.Kind{
		Name: def.Name,
		Nested: &attribute.NestedSpec{
			Accepts: func(value any) (attribute.Submodel, bool) {
				sub, ok := value.(*Model)
				if !ok || sub == nil || sub.def != def {
					return nil, false
				}
				return sub, true
			},
			New: func(init map[string]any) (attribute.Submodel, error) {
				return New(def, init, opts...)
			},
		},
	}
}
