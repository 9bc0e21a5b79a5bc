// Package entity defines the ontology's entity types and the in-memory
// index the rest of the engine validates against. Following the sum-type
// design in the project's design notes, Entity carries a shared header
// (kind, id, path) plus the decoded JSON body; typed accessors interpret
// the structural fields each kind defines, while unknown fields ride along
// in Data untouched for artifact emission.
package entity

// Kind identifies one of the six entity types. Its string value is also the
// type directory name in the repository layout.
type Kind string

const (
	KindCategory  Kind = "categories"
	KindProperty  Kind = "properties"
	KindSubobject Kind = "subobjects"
	KindTemplate  Kind = "templates"
	KindModule    Kind = "modules"
	KindBundle    Kind = "bundles"
)

// Kinds lists all six kinds in the fixed order the index builder and
// several validators iterate them in.
var Kinds = []Kind{KindCategory, KindProperty, KindSubobject, KindTemplate, KindModule, KindBundle}

// ContentBearingKinds are the kinds the orphan detector considers: entities
// that can be claimed by a module's contents lists. Modules and bundles are
// never orphans.
var ContentBearingKinds = []Kind{KindCategory, KindProperty, KindSubobject, KindTemplate}

// Entity is one decoded JSON entity file.
type Entity struct {
	Kind Kind
	ID   string
	Path string // repository-root-relative, e.g. "categories/Person.json"
	Data map[string]any
}

// Label returns the entity's label field, or "" if absent or non-string.
func (e *Entity) Label() string {
	return stringField(e.Data, "label")
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func stringSliceField(data map[string]any, key string) []string {
	raw, ok := data[key]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optionalStringField(data map[string]any, key string) (string, bool) {
	raw, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// Category-specific accessors.

func (e *Entity) Parents() []string           { return stringSliceField(e.Data, "parents") }
func (e *Entity) RequiredProperties() []string { return stringSliceField(e.Data, "required_properties") }
func (e *Entity) OptionalProperties() []string { return stringSliceField(e.Data, "optional_properties") }
func (e *Entity) RequiredSubobjects() []string { return stringSliceField(e.Data, "required_subobjects") }
func (e *Entity) OptionalSubobjects() []string { return stringSliceField(e.Data, "optional_subobjects") }

// Property-specific accessors.

func (e *Entity) Datatype() string   { return stringField(e.Data, "datatype") }
func (e *Entity) Cardinality() string {
	c := stringField(e.Data, "cardinality")
	if c == "" {
		return "single"
	}
	return c
}
func (e *Entity) AllowedValues() ([]string, bool) {
	raw, ok := e.Data["allowed_values"]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
func (e *Entity) ParentProperty() (string, bool)     { return optionalStringField(e.Data, "parent_property") }
func (e *Entity) HasDisplayTemplate() (string, bool) { return optionalStringField(e.Data, "has_display_template") }

// Module-specific accessors.

func (e *Entity) Version() string            { return stringField(e.Data, "version") }
func (e *Entity) ModuleCategories() []string  { return stringSliceField(e.Data, "categories") }
func (e *Entity) ModuleProperties() []string  { return stringSliceField(e.Data, "properties") }
func (e *Entity) ModuleSubobjects() []string  { return stringSliceField(e.Data, "subobjects") }
func (e *Entity) ModuleTemplates() []string   { return stringSliceField(e.Data, "templates") }
func (e *Entity) Dependencies() []string      { return stringSliceField(e.Data, "dependencies") }

// Contents returns the module's four content lists (categories,
// properties, subobjects, templates) keyed by the kind they reference. The
// result is a map, so ranging over it visits the kinds in no fixed order.
func (e *Entity) Contents() map[Kind][]string {
	return map[Kind][]string{
		KindCategory:  e.ModuleCategories(),
		KindProperty:  e.ModuleProperties(),
		KindSubobject: e.ModuleSubobjects(),
		KindTemplate:  e.ModuleTemplates(),
	}
}

// Bundle-specific accessors.

func (e *Entity) BundleModules() []string       { return stringSliceField(e.Data, "modules") }
func (e *Entity) Description() (string, bool)   { return optionalStringField(e.Data, "description") }
