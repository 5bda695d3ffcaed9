package resolve

import "fmt"

// ModelSpec is one model's columns and relations, the building block of
// StaticSchema.
type ModelSpec struct {
	Columns   []string
	Relations map[string]Relation
}

// StaticSchema is a SchemaIntrospector backed by an in-memory map, useful
// for tests, the CLI, and callers whose model graph is small and fixed
// rather than derived from a live ORM.
type StaticSchema struct {
	models map[string]ModelSpec
}

// NewStaticSchema builds a StaticSchema from a model-name -> spec map.
func NewStaticSchema(models map[string]ModelSpec) *StaticSchema {
	return &StaticSchema{models: models}
}

func (s *StaticSchema) RelationsOf(model string) (map[string]Relation, error) {
	spec, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}
	return spec.Relations, nil
}

func (s *StaticSchema) ColumnsOf(model string) (map[string]struct{}, error) {
	spec, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}
	cols := make(map[string]struct{}, len(spec.Columns))
	for _, c := range spec.Columns {
		cols[c] = struct{}{}
	}
	return cols, nil
}
