// Package ncio wraps the NetCDF bindings with the small set of typed
// read/write operations the parameter and forecast stores need: float
// variables of rank 1-3 and byte masks, with dimension checking and
// float32/float64 tolerance on read.
package ncio

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"
)

// File is a read-only NetCDF file handle.
type File struct {
	ds netcdf.Dataset
}

// Open opens path for reading.
func Open(path string) (*File, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	return &File{ds: ds}, nil
}

// Close releases the handle.
func (f *File) Close() error { return f.ds.Close() }

// varLen returns the variable and its total element count, validating rank.
func (f *File) varLen(name string, wantDims []int) (netcdf.Var, int, error) {
	v, err := f.ds.Var(name)
	if err != nil {
		return netcdf.Var{}, 0, fmt.Errorf("variable %q not found: %w", name, err)
	}
	dims, err := v.Dims()
	if err != nil {
		return netcdf.Var{}, 0, fmt.Errorf("failed to get dimensions of %q: %w", name, err)
	}
	if len(dims) != len(wantDims) {
		return netcdf.Var{}, 0, fmt.Errorf("variable %q is %dD, expected %dD", name, len(dims), len(wantDims))
	}
	total := 1
	for k, d := range dims {
		n, err := d.Len()
		if err != nil {
			return netcdf.Var{}, 0, fmt.Errorf("failed to get dim %d of %q: %w", k, name, err)
		}
		if wantDims[k] > 0 && n != uint64(wantDims[k]) {
			return netcdf.Var{}, 0, fmt.Errorf("variable %q dim %d is %d, expected %d", name, k, n, wantDims[k])
		}
		total *= int(n)
	}
	return v, total, nil
}

// readFloats reads total float values from v, converting float32 if needed.
func readFloats(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, total)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// Float1D reads a 1-D float variable. n > 0 enforces the length.
func (f *File) Float1D(name string, n int) ([]float64, error) {
	v, total, err := f.varLen(name, []int{n})
	if err != nil {
		return nil, err
	}
	return readFloats(v, total)
}

// Float2D reads a 2-D float variable with shape (ny, nx), flattened row
// major.
func (f *File) Float2D(name string, ny, nx int) ([]float64, error) {
	v, total, err := f.varLen(name, []int{ny, nx})
	if err != nil {
		return nil, err
	}
	return readFloats(v, total)
}

// Float3D reads a 3-D float variable with shape (n0, ny, nx).
func (f *File) Float3D(name string, n0, ny, nx int) ([]float64, error) {
	v, total, err := f.varLen(name, []int{n0, ny, nx})
	if err != nil {
		return nil, err
	}
	return readFloats(v, total)
}

// Bytes2D reads a 2-D byte variable (the validity mask).
func (f *File) Bytes2D(name string, ny, nx int) ([]byte, error) {
	v, total, err := f.varLen(name, []int{ny, nx})
	if err != nil {
		return nil, err
	}
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.BYTE, netcdf.UBYTE:
		data := make([]uint8, total)
		if err := v.ReadUint8s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]byte, total)
		for i, val := range tmp {
			if val != 0 {
				out[i] = 1
			}
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]byte, total)
		for i, val := range tmp {
			if val != 0 {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported mask type: %v", t)
	}
}

// DimLen returns the length of a named dimension.
func (f *File) DimLen(name string) (int, error) {
	d, err := f.ds.Dim(name)
	if err != nil {
		return 0, fmt.Errorf("dimension %q not found: %w", name, err)
	}
	n, err := d.Len()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Writer builds a NetCDF file. Dimensions are created on first use by name.
type Writer struct {
	ds   netcdf.Dataset
	dims map[string]netcdf.Dim
}

// Create creates (or clobbers) a NetCDF-4 file at path.
func Create(path string) (*Writer, error) {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return nil, fmt.Errorf("failed to create NetCDF file %s: %w", path, err)
	}
	return &Writer{ds: ds, dims: make(map[string]netcdf.Dim)}, nil
}

// Close finalizes the file.
func (w *Writer) Close() error { return w.ds.Close() }

// Dim holds a named dimension, creating it with length n on first use.
type Dim struct {
	Name string
	N    int
}

func (w *Writer) dim(d Dim) (netcdf.Dim, error) {
	if nd, ok := w.dims[d.Name]; ok {
		return nd, nil
	}
	nd, err := w.ds.AddDim(d.Name, uint64(d.N))
	if err != nil {
		return netcdf.Dim{}, fmt.Errorf("failed to add dim %q: %w", d.Name, err)
	}
	w.dims[d.Name] = nd
	return nd, nil
}

// PutFloats writes a float64 variable over the given dimensions.
func (w *Writer) PutFloats(name string, dims []Dim, data []float64) error {
	nds := make([]netcdf.Dim, len(dims))
	total := 1
	for k, d := range dims {
		nd, err := w.dim(d)
		if err != nil {
			return err
		}
		nds[k] = nd
		total *= d.N
	}
	if total != len(data) {
		return fmt.Errorf("variable %q: %d values for %d cells", name, len(data), total)
	}
	v, err := w.ds.AddVar(name, netcdf.DOUBLE, nds)
	if err != nil {
		return fmt.Errorf("failed to add var %q: %w", name, err)
	}
	if err := v.WriteFloat64s(data); err != nil {
		return fmt.Errorf("failed to write var %q: %w", name, err)
	}
	return nil
}

// PutBytes writes a byte variable over the given dimensions.
func (w *Writer) PutBytes(name string, dims []Dim, data []byte) error {
	nds := make([]netcdf.Dim, len(dims))
	total := 1
	for k, d := range dims {
		nd, err := w.dim(d)
		if err != nil {
			return err
		}
		nds[k] = nd
		total *= d.N
	}
	if total != len(data) {
		return fmt.Errorf("variable %q: %d values for %d cells", name, len(data), total)
	}
	v, err := w.ds.AddVar(name, netcdf.UBYTE, nds)
	if err != nil {
		return fmt.Errorf("failed to add var %q: %w", name, err)
	}
	if err := v.WriteUint8s(data); err != nil {
		return fmt.Errorf("failed to write var %q: %w", name, err)
	}
	return nil
}
