// Package forecast loads raw ensemble precipitation forecast files.
package forecast

import (
	"fmt"
	"path/filepath"

	"github.com/nwp-tools/precip-calib/internal/adapter/store/ncio"
	"github.com/nwp-tools/precip-calib/internal/domain"
)

// Store reads per-(model, init, lead) ensemble files from a data directory.
type Store struct {
	dir string
}

// NewStore creates a forecast store rooted at dir.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Path returns the deterministic file name for one invocation.
func (s *Store) Path(model domain.Model, init string, leadHours int) string {
	return filepath.Join(s.dir, fmt.Sprintf("ens_%s_%s_f%03d.nc", model, init, leadHours))
}

// Load reads the ensemble file for (model, init, lead): grid geometry, the
// validity mask and one accumulated-precipitation field per member. The
// member count must match the model's fixed ensemble size.
func (s *Store) Load(model domain.Model, init string, leadHours int) (*domain.Geometry, *domain.EnsembleField, error) {
	path := s.Path(model, init, leadHours)
	f, err := ncio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	ny, err := f.DimLen("y")
	if err != nil {
		return nil, nil, err
	}
	nx, err := f.DimLen("x")
	if err != nil {
		return nil, nil, err
	}
	nm, err := f.DimLen("member")
	if err != nil {
		return nil, nil, err
	}
	if want := model.Spec().Members; nm != want {
		return nil, nil, fmt.Errorf("%s: %d members in file, %s expects %d", path, nm, model, want)
	}

	geom := &domain.Geometry{NY: ny, NX: nx}
	if geom.Lats, err = f.Float1D("lats", ny); err != nil {
		return nil, nil, err
	}
	if geom.Lons, err = f.Float1D("lons", nx); err != nil {
		return nil, nil, err
	}
	if geom.Mask, err = f.Bytes2D("mask", ny, nx); err != nil {
		return nil, nil, err
	}
	if err := geom.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	flat, err := f.Float3D("apcp", nm, ny, nx)
	if err != nil {
		return nil, nil, err
	}
	ens := &domain.EnsembleField{Members: make([]*domain.GridField, nm)}
	for m := 0; m < nm; m++ {
		ens.Members[m] = &domain.GridField{NY: ny, NX: nx, Data: flat[m*ny*nx : (m+1)*ny*nx]}
	}
	return geom, ens, nil
}
