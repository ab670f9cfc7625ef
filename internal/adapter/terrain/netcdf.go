package terrain

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"
)

// readAxis reads a 1D coordinate variable as float64.
func readAxis(nc netcdf.Dataset, names []string) ([]float64, error) {
	for _, name := range names {
		v, err := nc.Var(name)
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil || len(dims) != 1 {
			return nil, fmt.Errorf("%s must be 1D", name)
		}
		n, err := dims[0].Len()
		if err != nil {
			return nil, err
		}
		t, err := v.Type()
		if err != nil {
			return nil, fmt.Errorf("failed to get var type: %w", err)
		}
		switch t {
		case netcdf.DOUBLE:
			out := make([]float64, n)
			if err := v.ReadFloat64s(out); err != nil {
				return nil, err
			}
			return out, nil
		case netcdf.FLOAT:
			tmp := make([]float32, n)
			if err := v.ReadFloat32s(tmp); err != nil {
				return nil, err
			}
			out := make([]float64, n)
			for i, val := range tmp {
				out[i] = float64(val)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("unsupported var type: %v", t)
		}
	}
	return nil, fmt.Errorf("variable not found (tried: %v)", names)
}

// readFloat32Subset reads a hyperslab as float32 whatever the stored type.
func readFloat32Subset(v netcdf.Var, start, count []uint64) ([]float32, error) {
	total := uint64(1)
	for _, c := range count {
		total *= c
	}
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	out := make([]float32, total)
	switch t {
	case netcdf.FLOAT:
		if err := v.ReadFloat32Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
	case netcdf.DOUBLE:
		tmp := make([]float64, total)
		if err := v.ReadFloat64Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float32(val)
		}
	case netcdf.SHORT:
		// GEBCO stores whole metres as int16.
		tmp := make([]int16, total)
		if err := v.ReadInt16Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float32(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float32(val)
		}
	default:
		return nil, fmt.Errorf("unsupported data type: %v", t)
	}
	return out, nil
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufs := make([]int16, 1)
		if err := a.ReadInt16s(bufs); err == nil {
			return float64(bufs[0]), true
		}
	}
	return 0, false
}
