package schema

// KindModel marks an attribute holding a sub-model.
const KindModel = "model"

// Document is the decoded form of a schema file.
type Document struct {
	Models map[string]ModelSpec `mapstructure:"models" yaml:"models" json:"models"`
}

// ModelSpec describes one model.
type ModelSpec struct {
	Persistent bool            `mapstructure:"persistent" yaml:"persistent,omitempty" json:"persistent,omitempty"`
	Attributes []AttributeSpec `mapstructure:"attributes" yaml:"attributes" json:"attributes"`
}

// AttributeSpec describes one attribute. At most one of Formula and Derive is set.
type AttributeSpec struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Kind    string `mapstructure:"kind" yaml:"kind" json:"kind"`
	Default any    `mapstructure:"default" yaml:"default,omitempty" json:"default,omitempty"`

	// Formula is an expression evaluated by Engine ("expr" or "cel").
	Formula   string   `mapstructure:"formula" yaml:"formula,omitempty" json:"formula,omitempty"`
	Engine    string   `mapstructure:"engine" yaml:"engine,omitempty" json:"engine,omitempty"`
	DependsOn []string `mapstructure:"dependsOn" yaml:"dependsOn,omitempty" json:"dependsOn,omitempty"`

	// Derive names a registry derivation.
	Derive string `mapstructure:"derive" yaml:"derive,omitempty" json:"derive,omitempty"`

	// Validate is a go-playground/validator tag; Validator names a registry hook.
	Validate  string `mapstructure:"validate" yaml:"validate,omitempty" json:"validate,omitempty"`
	Validator string `mapstructure:"validator" yaml:"validator,omitempty" json:"validator,omitempty"`

	// Model references another model of the document when Kind is "model".
	Model string `mapstructure:"model" yaml:"model,omitempty" json:"model,omitempty"`
}
