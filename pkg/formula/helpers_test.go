package formula_test

import (
	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
)

func codecKind(c codec.Codec) attribute.Kind {
	return attribute.Kind{Name: c.Name(), Codec: c}
}
