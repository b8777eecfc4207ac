package ntuple

import (
	"fmt"
)

// Branch values arrive as pointers to the leaf's Go type. The helpers below
// accept any numeric leaf type so that ntuples written with different
// precisions read the same way.

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case *float64:
		return *x, nil
	case *float32:
		return float64(*x), nil
	case *int32:
		return float64(*x), nil
	case *int64:
		return float64(*x), nil
	case *int16:
		return float64(*x), nil
	case *int8:
		return float64(*x), nil
	case *uint32:
		return float64(*x), nil
	case *uint64:
		return float64(*x), nil
	case *uint16:
		return float64(*x), nil
	case *uint8:
		return float64(*x), nil
	case *bool:
		if *x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported leaf type %T", v)
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case *int32:
		return int(*x), nil
	case *int64:
		return int(*x), nil
	case *int16:
		return int(*x), nil
	case *int8:
		return int(*x), nil
	case *uint32:
		return int(*x), nil
	case *uint16:
		return int(*x), nil
	case *uint8:
		return int(*x), nil
	}
	// Some ntuples store type codes as floating point.
	f, err := asFloat(v)
	return int(f), err
}

func asUint(v any) (uint64, error) {
	switch x := v.(type) {
	case *uint64:
		return *x, nil
	case *uint32:
		return uint64(*x), nil
	case *int64:
		return uint64(*x), nil
	case *int32:
		return uint64(*x), nil
	}
	return 0, fmt.Errorf("unsupported counter leaf type %T", v)
}

func asFloats(v any) ([]float32, error) {
	switch x := v.(type) {
	case *[]float32:
		return append([]float32(nil), (*x)...), nil
	case *[]float64:
		out := make([]float32, len(*x))
		for i, f := range *x {
			out[i] = float32(f)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported array leaf type %T", v)
}

func setFloat(dst *float64, v any) error {
	f, err := asFloat(v)
	*dst = f
	return err
}

func setInt(dst *int, v any) error {
	n, err := asInt(v)
	*dst = n
	return err
}
