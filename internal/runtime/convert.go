package runtime

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/risor-io/risor/object"
)

// toObject converts a decoded JSON/YAML-style Go value to a Risor object.
// Event parents/args and store responses pass through here on their way
// into a script.
func toObject(v any) object.Object {
	switch val := v.(type) {
	case nil:
		return object.Nil
	case object.Object:
		return val
	case bool:
		return object.NewBool(val)
	case string:
		return object.NewString(val)
	case int:
		return object.NewInt(int64(val))
	case int8:
		return object.NewInt(int64(val))
	case int16:
		return object.NewInt(int64(val))
	case int32:
		return object.NewInt(int64(val))
	case int64:
		return object.NewInt(val)
	case uint:
		return toObject(uint64(val))
	case uint8:
		return object.NewInt(int64(val))
	case uint16:
		return object.NewInt(int64(val))
	case uint32:
		return object.NewInt(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return object.NewFloat(float64(val))
		}
		return object.NewInt(int64(val))
	case float32:
		return object.NewFloat(float64(val))
	case float64:
		return object.NewFloat(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return object.NewInt(i)
		}
		f, _ := val.Float64()
		return object.NewFloat(f)
	case []any:
		items := make([]object.Object, len(val))
		for i, item := range val {
			items[i] = toObject(item)
		}
		return object.NewList(items)
	case []map[string]any:
		items := make([]object.Object, len(val))
		for i, item := range val {
			items[i] = toObject(item)
		}
		return object.NewList(items)
	case map[string]any:
		m := make(map[string]object.Object, len(val))
		for k, item := range val {
			m[k] = toObject(item)
		}
		return object.NewMap(m)
	case map[any]any:
		m := make(map[string]object.Object, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = toObject(item)
		}
		return object.NewMap(m)
	default:
		return object.FromGoType(val)
	}
}

// fromObject converts a settled Risor object back to a plain Go value.
// Error objects, including ones nested in lists or maps, become errors.
func fromObject(obj object.Object) (any, error) {
	switch val := obj.(type) {
	case nil, *object.NilType:
		return nil, nil
	case *object.Error:
		return nil, val.Value()
	case *object.Bool:
		return val.Value(), nil
	case *object.Int:
		return val.Value(), nil
	case *object.Float:
		return val.Value(), nil
	case *object.String:
		return val.Value(), nil
	case *object.List:
		items := val.Value()
		out := make([]any, len(items))
		for i, item := range items {
			v, err := fromObject(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *object.Map:
		items := val.Value()
		out := make(map[string]any, len(items))
		for _, k := range sortedKeys(items) {
			v, err := fromObject(items[k])
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return obj.Interface(), nil
	}
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

func sortedKeys(m map[string]object.Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
