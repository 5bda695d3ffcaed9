package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/qdsl/qdsl/resolve"
)

type schemaFile struct {
	Root   string                 `json:"root"`
	Models map[string]modelDoc    `json:"models"`
}

type modelDoc struct {
	Columns   []string              `json:"columns"`
	Relations map[string]relationDoc `json:"relations"`
}

type relationDoc struct {
	TargetModel   string `json:"target_model"`
	IsSelfRef     bool   `json:"is_self_ref"`
	JoinPredicate string `json:"join_predicate"` // "{alias}.user_id = {parent}.id"
}

// loadSchema reads a CLI schema document into a root model name plus a
// resolve.SchemaIntrospector.
func loadSchema(path string) (string, *resolve.StaticSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read schema file: %w", err)
	}
	var doc schemaFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("parse schema file: %w", err)
	}
	if doc.Root == "" {
		return "", nil, fmt.Errorf("schema file is missing \"root\"")
	}

	models := make(map[string]resolve.ModelSpec, len(doc.Models))
	for name, m := range doc.Models {
		rels := make(map[string]resolve.Relation, len(m.Relations))
		for relName, r := range m.Relations {
			tmpl := r.JoinPredicate
			rels[relName] = resolve.Relation{
				TargetModel: r.TargetModel,
				IsSelfRef:   r.IsSelfRef,
				JoinPredicate: func(parentAlias, alias string) string {
					return renderJoinTemplate(tmpl, parentAlias, alias)
				},
			}
		}
		models[name] = resolve.ModelSpec{Columns: m.Columns, Relations: rels}
	}

	return doc.Root, resolve.NewStaticSchema(models), nil
}

func renderJoinTemplate(tmpl, parentAlias, alias string) string {
	out := strings.ReplaceAll(tmpl, "{parent}", parentAlias)
	out = strings.ReplaceAll(out, "{alias}", alias)
	return out
}
