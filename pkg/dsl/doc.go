/*
Package dsl provides a fluent Go builder for model definitions.

It is the in-code counterpart of schema files: type-safe, easy to use in tests
and friendly to IDE completion.

Example usage:

	b := dsl.New("person").Persistent()

	b.Add("first").AsString().Default("Ada")
	b.Add("last").AsString()
	b.Add("full").AsString().Formula("first + ' ' + last")
	b.Add("age").AsInteger().Validate(func(v any) string {
		if v != nil && v.(int64) < 0 {
			return "must be positive"
		}
		return ""
	})

	def, err := b.Build()
	// ... pass def to model.New(def, values)
*/
package dsl
