package runtime

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToObject_Scalars(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   any
		want object.Object
	}{
		{nil, object.Nil},
		{true, object.True},
		{"s", object.NewString("s")},
		{7, object.NewInt(7)},
		{uint8(7), object.NewInt(7)},
		{int64(-3), object.NewInt(-3)},
		{float32(0.5), object.NewFloat(0.5)},
		{json.Number("12"), object.NewInt(12)},
		{json.Number("1.5"), object.NewFloat(1.5)},
		{uint64(math.MaxInt64), object.NewInt(math.MaxInt64)},
		{uint64(math.MaxUint64), object.NewFloat(float64(uint64(math.MaxUint64)))},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toObject(tt.in), "toObject(%#v)", tt.in)
	}
}

func TestToObject_Nested(t *testing.T) {
	t.Parallel()
	in := map[string]any{
		"rows": []map[string]any{{"id": int64(1)}},
		"yaml": map[any]any{1: "one"},
	}
	obj := toObject(in)
	back, err := fromObject(obj)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"rows": []any{map[string]any{"id": int64(1)}},
		"yaml": map[string]any{"1": "one"},
	}, back)
}

func TestFromObject_ErrorsAnywhere(t *testing.T) {
	t.Parallel()
	boom := object.NewError(errors.New("boom"))

	_, err := fromObject(boom)
	require.EqualError(t, err, "boom")

	_, err = fromObject(object.NewList([]object.Object{object.NewInt(1), boom}))
	require.EqualError(t, err, "boom")

	_, err = fromObject(object.NewMap(map[string]object.Object{"k": boom}))
	require.EqualError(t, err, "boom")
}

func TestExtractMap_RejectsNonMap(t *testing.T) {
	t.Parallel()
	_, err := extractMap(object.NewInt(1))
	require.Error(t, err)
	_, err = toString(object.NewInt(1))
	require.Error(t, err)
}
