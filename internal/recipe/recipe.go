// Package recipe reads completion recipes: YAML documents naming the
// groups, by columns, fill values and flags of a Complete call.
//
// A recipe looks like
//
//	groups:
//	  - column: group
//	  - columns: [item_id, item_name]
//	  - values:
//	      year: {full_seq: 1}
//	      quarter: {list: [1, 2, 3, 4]}
//	      week: {range: [1, 53]}
//	by: [state]
//	sort: true
//	explicit: false
//	fill:
//	  value1: 0
//	  value2: 99
//
// fill may also be a single scalar applied to every non-key column.
package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paveg/tidy/internal/complete"
	dferrors "github.com/paveg/tidy/internal/errors"
	"gopkg.in/yaml.v3"
)

const opRecipe = "Recipe"

// Recipe holds decoded Complete arguments.
type Recipe struct {
	Groups    []complete.GroupSpec
	By        []string
	Sort      bool
	Explicit  bool
	FillValue any
}

// Options returns the Complete options of the recipe.
func (r *Recipe) Options() complete.Options {
	return complete.Options{
		By:        append([]string(nil), r.By...),
		Sort:      r.Sort,
		FillValue: r.FillValue,
		Explicit:  r.Explicit,
	}
}

type rawRecipe struct {
	Groups   []yaml.Node `yaml:"groups"`
	By       yaml.Node   `yaml:"by"`
	Sort     yaml.Node   `yaml:"sort"`
	Explicit yaml.Node   `yaml:"explicit"`
	Fill     yaml.Node   `yaml:"fill"`
}

// Load reads a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a recipe document. Unknown fields, malformed groups and
// non-boolean flags are configuration errors.
func Parse(data []byte) (*Recipe, error) {
	var raw rawRecipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, dferrors.Wrap(opRecipe, "", err)
	}

	r := &Recipe{Explicit: true}
	var err error

	for i := range raw.Groups {
		g, err := parseGroup(&raw.Groups[i])
		if err != nil {
			return nil, err
		}
		r.Groups = append(r.Groups, g)
	}
	if r.By, err = stringList("by", &raw.By); err != nil {
		return nil, err
	}
	if r.Sort, err = boolean("sort", &raw.Sort, false); err != nil {
		return nil, err
	}
	if r.Explicit, err = boolean("explicit", &raw.Explicit, true); err != nil {
		return nil, err
	}
	if r.FillValue, err = fillValue(&raw.Fill); err != nil {
		return nil, err
	}
	return r, nil
}

func parseGroup(node *yaml.Node) (complete.GroupSpec, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, invalid(node, "groups", "each group needs exactly one of column, columns or values")
	}
	key, value := node.Content[0], node.Content[1]

	switch key.Value {
	case "column":
		var name string
		if value.Kind != yaml.ScalarNode || value.Decode(&name) != nil {
			return nil, invalid(value, "column", "expected a column name")
		}
		return complete.Column(name), nil
	case "columns":
		names, err := stringList("columns", value)
		if err != nil {
			return nil, err
		}
		return complete.Nested(names), nil
	case "values":
		return parseMapping(value)
	default:
		return nil, invalid(key, key.Value, "unknown group kind")
	}
}

func parseMapping(node *yaml.Node) (complete.Mapping, error) {
	if node.Kind != yaml.MappingNode {
		return nil, invalid(node, "values", "expected a mapping of column to value source")
	}
	var m complete.Mapping
	for i := 0; i+1 < len(node.Content); i += 2 {
		column := node.Content[i].Value
		src, err := parseSource(column, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		m = append(m, complete.MapEntry{Column: column, Source: src})
	}
	return m, nil
}

func parseSource(column string, node *yaml.Node) (complete.ValueSource, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, invalid(node, column, "value source needs exactly one of list, range or full_seq")
	}
	kind, value := node.Content[0].Value, node.Content[1]

	switch kind {
	case "list":
		if value.Kind != yaml.SequenceNode {
			return nil, invalid(value, column, "list must be a sequence")
		}
		vals := make(complete.Values, 0, len(value.Content))
		for _, item := range value.Content {
			v, err := scalar(column, item)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return vals, nil
	case "range":
		var bounds []int64
		if value.Kind != yaml.SequenceNode || value.Decode(&bounds) != nil || len(bounds) < 2 || len(bounds) > 3 {
			return nil, invalid(value, column, "range must be [start, stop] or [start, stop, step] integers")
		}
		r := complete.Range{Start: bounds[0], Stop: bounds[1]}
		if len(bounds) == 3 {
			r.Step = bounds[2]
		}
		return r, nil
	case "full_seq":
		var period int64
		if value.Kind != yaml.ScalarNode || value.Decode(&period) != nil {
			return nil, invalid(value, column, "full_seq needs an integer period")
		}
		return complete.FullSeq(column, period), nil
	default:
		return nil, invalid(node.Content[0], column, "unknown value source "+kind)
	}
}

// scalar decodes a scalar node; null decodes to nil.
func scalar(field string, node *yaml.Node) (any, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, invalid(node, field, "expected a scalar value")
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, invalid(node, field, err.Error())
	}
	return v, nil
}

func stringList(field string, node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return nil, invalid(node, field, "expected a list of column names")
		}
		return out, nil
	default:
		return nil, invalid(node, field, "expected a column name or a list of column names")
	}
}

func boolean(field string, node *yaml.Node, def bool) (bool, error) {
	if node.Kind == 0 {
		return def, nil
	}
	if node.Kind != yaml.ScalarNode || node.Tag != "!!bool" {
		return false, invalid(node, field, fmt.Sprintf("%s must be a boolean, got %q", field, node.Value))
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return false, invalid(node, field, err.Error())
	}
	return b, nil
}

// fillValue decodes fill as a scalar or a map of column to value. Map
// values are not checked here; Complete rejects the non-scalar ones.
func fillValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return scalar("fill", node)
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var v any
			if err := node.Content[i+1].Decode(&v); err != nil {
				return nil, invalid(node.Content[i+1], node.Content[i].Value, err.Error())
			}
			out[node.Content[i].Value] = v
		}
		return out, nil
	default:
		return nil, invalid(node, "fill", "fill must be a scalar or a mapping of column to scalar")
	}
}

func invalid(node *yaml.Node, field, msg string) error {
	return dferrors.NewConfigurationError(opRecipe, field, fmt.Sprintf("line %d: %s", node.Line, msg))
}
