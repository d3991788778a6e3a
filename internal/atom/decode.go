package atom

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/ohler55/ojg/oj"
	"github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"go.yaml.in/yaml/v3"
)

type decodeFunc func(data []byte, filename string) (any, error)

// decoders maps each structured suffix to its parser. Suffixes not listed
// here are loaded as text.
var decoders = map[string]decodeFunc{
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".json": decodeJSON,
	".toml": decodeTOML,
	".hcl":  decodeHCL,
}

// StructuredSuffixes returns the suffixes parsed as structured data.
func StructuredSuffixes() []string {
	return []string{".hcl", ".json", ".toml", ".yaml", ".yml"}
}

// IsStructured reports whether a file with the given suffix is parsed.
func IsStructured(suffix string) bool {
	_, ok := decoders[strings.ToLower(suffix)]
	return ok
}

// decode parses data when suffix is structured, and keeps it as text
// otherwise.
func decode(data []byte, filename, suffix string) (Value, error) {
	fn, ok := decoders[strings.ToLower(suffix)]
	if !ok {
		return Text(data), nil
	}
	v, err := fn(data, filename)
	if err != nil {
		return nil, err
	}
	return Structured{Data: v}, nil
}

// splitName splits a filename into stem and suffix. A name made of a single
// leading dot and no other dot (".editorconfig") has no suffix.
func splitName(name string) (stem, suffix string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}

func decodeYAML(data []byte, _ string) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

func decodeJSON(data []byte, _ string) (any, error) {
	return oj.Parse(data)
}

func decodeTOML(data []byte, _ string) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeHCL evaluates the top-level attributes of an HCL file without any
// variables or functions in scope.
func decodeHCL(data []byte, filename string) (any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}

	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %s", name, diags.Error())
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

// ctyToNative recursively converts a cty.Value to its natural Go counterpart.
func ctyToNative(v cty.Value) (any, error) {
	if !v.IsKnown() || v.IsNull() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported HCL value type %s", ty.FriendlyName())
	}
}

// normalize converts YAML-decoded values to JSON-like shapes: every mapping
// becomes map[string]any.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = normalize(elem)
		}
		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[fmt.Sprint(k)] = normalize(elem)
		}
		return m
	case []any:
		for i, elem := range val {
			val[i] = normalize(elem)
		}
		return val
	default:
		return val
	}
}
