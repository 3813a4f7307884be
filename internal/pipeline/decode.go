package pipeline

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/pointpipe/internal/options"
)

// stageSpec is the decoded form of one pipeline block.
type stageSpec struct {
	driver string
	inputs []string
	opts   *options.Set
}

func (s *stageSpec) filename() string {
	raw, ok := s.opts.Get("filename")
	if !ok {
		return ""
	}
	name, _ := raw.(string)
	return name
}

// decodeBlock reads a block's attributes: driver and inputs are structural,
// everything else lands in the stage's option set.
func decodeBlock(b block) (*stageSpec, error) {
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "stage %q", b.Name)
	}

	spec := &stageSpec{opts: options.New()}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.Wrapf(diags, "stage %q attribute %q", b.Name, name)
		}
		switch name {
		case "driver":
			if val.Type() != cty.String {
				return nil, errors.Errorf("stage %q: driver must be a string", b.Name)
			}
			spec.driver = val.AsString()
		case "inputs":
			inputs, err := stringList(val)
			if err != nil {
				return nil, errors.Wrapf(err, "stage %q inputs", b.Name)
			}
			spec.inputs = inputs
		default:
			goVal, err := ctyToGo(val)
			if err != nil {
				return nil, errors.Wrapf(err, "stage %q attribute %q", b.Name, name)
			}
			spec.opts.Add(name, goVal)
		}
	}
	return spec, nil
}

func stringList(val cty.Value) ([]string, error) {
	if val.IsNull() {
		return nil, nil
	}
	t := val.Type()
	if !t.IsTupleType() && !t.IsListType() {
		return nil, errors.Errorf("expected a list of strings, got %s", t.FriendlyName())
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.Type() != cty.String {
			return nil, errors.Errorf("expected a list of strings, got element %s", v.Type().FriendlyName())
		}
		out = append(out, v.AsString())
	}
	return out, nil
}

// ctyToGo converts a literal cty.Value into the Go representation the
// option set stores. Numbers become int64 when integral, float64
// otherwise.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	t := val.Type()
	if t.IsPrimitiveType() {
		switch t {
		case cty.String:
			return val.AsString(), nil
		case cty.Bool:
			return val.True(), nil
		case cty.Number:
			bf := val.AsBigFloat()
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
			f, _ := bf.Float64()
			return f, nil
		default:
			return nil, errors.Errorf("unsupported primitive type %s", t.FriendlyName())
		}
	}
	if t.IsTupleType() || t.IsListType() {
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	if t.IsObjectType() || t.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported option type %s", t.FriendlyName())
}
