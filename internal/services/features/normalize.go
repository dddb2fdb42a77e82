package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
)

// ErrNotSequence is returned when a price column is not a slice or array.
var ErrNotSequence = errors.New("price column is not a sequence")

// NormalizePrices coerces each raw value to a float. Values that cannot be
// read as a finite number become null instead of failing the series.
func NormalizePrices(values []any) []null.Float {
	out := make([]null.Float, len(values))
	for i, v := range values {
		out[i] = ToFloat(v)
	}
	return out
}

// NormalizeColumn accepts any slice or array (e.g. []float64, []string,
// []*float64) and normalizes it element-wise.
func NormalizeColumn(column any) ([]null.Float, error) {
	if vs, ok := column.([]any); ok {
		return NormalizePrices(vs), nil
	}
	rv := reflect.ValueOf(column)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: got %T", ErrNotSequence, column)
	}
	out := make([]null.Float, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = ToFloat(rv.Index(i).Interface())
	}
	return out, nil
}

// CloseColumn extracts the close values of bars as a raw column.
func CloseColumn(bars []models.Bar) []any {
	out := make([]any, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// ToFloat coerces one sample. A slice value is a duplicated column from the
// upstream table; its first element is used.
func ToFloat(v any) null.Float {
	switch x := v.(type) {
	case nil:
		return null.Float{}
	case null.Float:
		return finite(x.Float64, x.Valid)
	case *null.Float:
		if x == nil {
			return null.Float{}
		}
		return finite(x.Float64, x.Valid)
	case float64:
		return finite(x, true)
	case float32:
		return finite(float64(x), true)
	case int:
		return null.FloatFrom(float64(x))
	case int32:
		return null.FloatFrom(float64(x))
	case int64:
		return null.FloatFrom(float64(x))
	case uint32:
		return null.FloatFrom(float64(x))
	case uint64:
		return null.FloatFrom(float64(x))
	case *float64:
		if x == nil {
			return null.Float{}
		}
		return finite(*x, true)
	case json.Number:
		f, err := x.Float64()
		return finite(f, err == nil)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return finite(f, err == nil)
	case []any:
		if len(x) == 0 {
			return null.Float{}
		}
		return ToFloat(x[0])
	case bool:
		return null.Float{}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return null.Float{}
		}
		return ToFloat(rv.Index(0).Interface())
	case reflect.Pointer:
		if rv.IsNil() {
			return null.Float{}
		}
		return ToFloat(rv.Elem().Interface())
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float(), true)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return null.FloatFrom(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return null.FloatFrom(float64(rv.Uint()))
	}
	return null.Float{}
}

func finite(f float64, ok bool) null.Float {
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
