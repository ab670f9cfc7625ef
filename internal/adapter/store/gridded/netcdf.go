package gridded

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"
)

var (
	latNames  = []string{"lat", "latitude", "y"}
	lonNames  = []string{"lon", "longitude", "x"}
	timeNames = []string{"time", "valid_time", "t"}
)

// findVar returns the first variable that exists under one of names.
func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, error) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, nil
		}
	}
	return netcdf.Var{}, fmt.Errorf("variable not found (tried: %v)", names)
}

// readAxis reads a 1D coordinate variable as float64.
func readAxis(nc netcdf.Dataset, names []string) ([]float64, error) {
	v, err := findVar(nc, names)
	if err != nil {
		return nil, err
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	out := make([]float64, length)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT64:
		tmp := make([]int64, length)
		if err := v.ReadInt64s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

// packing holds the decoding attributes of a data variable.
type packing struct {
	fill      float64
	hasFill   bool
	scale     float64
	offset    float64
	hasScaled bool
}

func readPacking(v netcdf.Var) packing {
	p := packing{scale: 1}
	for _, name := range []string{"_FillValue", "missing_value"} {
		if val, ok := readScalarAttr(v, name); ok {
			p.fill, p.hasFill = val, true
			break
		}
	}
	if val, ok := readScalarAttr(v, "scale_factor"); ok && val != 0 {
		p.scale, p.hasScaled = val, true
	}
	if val, ok := readScalarAttr(v, "add_offset"); ok {
		p.offset, p.hasScaled = val, true
	}
	return p
}

// decode turns a raw value into a physical one. Fill values become NaN.
func (p packing) decode(raw float64) float32 {
	if math.IsNaN(raw) || (p.hasFill && raw == p.fill) {
		return float32(math.NaN())
	}
	if p.hasScaled {
		raw = raw*p.scale + p.offset
	}
	return float32(raw)
}

func readScalarAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, n)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, n)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, n)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, n)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	return 0, false
}

// readHyperslab reads count values starting at start and decodes them.
//
//nolint:gosec // G115: NetCDF indices are non-negative.
func readHyperslab(v netcdf.Var, start, count []uint64) ([]float32, error) {
	total := uint64(1)
	for _, c := range count {
		total *= c
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}
	p := readPacking(v)

	out := make([]float32, total)
	switch t {
	case netcdf.FLOAT:
		if err := v.ReadFloat32Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
		for i, val := range out {
			out[i] = p.decode(float64(val))
		}
	case netcdf.DOUBLE:
		tmp := make([]float64, total)
		if err := v.ReadFloat64Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = p.decode(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = p.decode(float64(val))
		}
	default:
		return nil, fmt.Errorf("unsupported data type: %v (expected FLOAT, DOUBLE or SHORT)", t)
	}
	return out, nil
}

// dimLens returns the length of every dimension of v.
func dimLens(v netcdf.Var) ([]uint64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	out := make([]uint64, len(dims))
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dim%d length: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}
