package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FromAny converts decoded Go data (the shapes produced by encoding/json and
// yaml decoders) into a Value. Map keys are sorted because Go maps carry no
// order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return FromBool(t), nil
	case string:
		return FromString(t), nil
	case json.Number:
		return FromNumber(Number(t)), nil
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return Value{}, fmt.Errorf("value: %v is not representable in JSON", t)
		}
		return FromFloat(t), nil
	case float32:
		return FromAny(float64(t))
	case int:
		return FromInt(int64(t)), nil
	case int64:
		return FromInt(t), nil
	case int32:
		return FromInt(int64(t)), nil
	case uint64:
		return FromNumber(Number(strconv.FormatUint(t, 10))), nil
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			v, err := FromAny(it)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return ArrayOf(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			o.Set(k, v)
		}
		return ObjectOf(o), nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, v := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("value: non-string object key %v", k)
			}
			m[ks] = v
		}
		return FromAny(m)
	default:
		return Value{}, fmt.Errorf("value: unsupported Go type %T", x)
	}
}

// ToAny converts v into encoding/json shaped data with json.Number numbers.
func ToAny(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.s)
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, it := range v.arr {
			out[i] = ToAny(it)
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for k, m := range v.obj.All() {
			out[k] = ToAny(m)
		}
		return out
	default:
		return nil
	}
}

// FromYAML converts a YAML node tree. Mapping order is kept.
func FromYAML(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return FromYAML(n.Content[0])
	case yaml.AliasNode:
		return FromYAML(n.Alias)
	case yaml.SequenceNode:
		items := make([]Value, len(n.Content))
		for i, c := range n.Content {
			v, err := FromYAML(c)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return ArrayOf(items...), nil
	case yaml.MappingNode:
		o := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, vn := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("value: line %d: non-scalar mapping key", k.Line)
			}
			v, err := FromYAML(vn)
			if err != nil {
				return Value{}, err
			}
			o.Set(k.Value, v)
		}
		return ObjectOf(o), nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return Value{}, fmt.Errorf("value: line %d: unsupported YAML node", n.Line)
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return FromBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var u uint64
			if uerr := n.Decode(&u); uerr != nil {
				return Value{}, err
			}
			return FromNumber(Number(strconv.FormatUint(u, 10))), nil
		}
		return FromInt(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, fmt.Errorf("value: line %d: %s is not representable in JSON", n.Line, n.Value)
		}
		if _, err := strconv.ParseFloat(n.Value, 64); err == nil && json.Valid([]byte(n.Value)) {
			return FromNumber(Number(n.Value)), nil
		}
		return FromFloat(f), nil
	default:
		return FromString(n.Value), nil
	}
}
