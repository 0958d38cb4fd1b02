package domain

// StencilDim is the edge length of the square expansion stencil; every cell's
// ensemble is enlarged by the StencilDim*StencilDim surrounding cells.
const StencilDim = 5

// StencilSize is the expansion factor applied to the member count.
const StencilSize = StencilDim * StencilDim

// StencilStride returns the cell separation between stencil points for a
// forecast lead. Longer leads are noisier, so the stencil spans a wider
// radius: stride = 1 + lead/72, capped at 4 (±8 cells at the longest leads).
func StencilStride(leadHours int) int {
	stride := 1 + leadHours/72
	if stride > 4 {
		stride = 4
	}
	return stride
}

// Expand builds the stencil-expanded pseudo-ensemble: for every analysis
// cell, each member contributes its values at the StencilSize neighboring
// cells separated by stride. Stencil points falling outside the grid or
// outside the validity mask substitute the center cell's own value, so no
// out-of-mask data is ever read. Output size per cell is exactly
// ens.Len() * StencilSize.
func Expand(ens *EnsembleField, geom *Geometry, stride int) *ExpandedEnsemble {
	nm := ens.Len()
	out := &ExpandedEnsemble{
		NY:      geom.NY,
		NX:      geom.NX,
		PerCell: nm * StencilSize,
		Values:  make([]float64, geom.Cells()*nm*StencilSize),
	}
	half := StencilDim / 2
	for j := 0; j < geom.NY; j++ {
		for i := 0; i < geom.NX; i++ {
			cell := out.CellValues(j, i)
			slot := 0
			for m := 0; m < nm; m++ {
				center := ens.Members[m].At(j, i)
				for dj := -half; dj <= half; dj++ {
					for di := -half; di <= half; di++ {
						jj := j + dj*stride
						ii := i + di*stride
						v := center
						if geom.Valid(jj, ii) {
							v = ens.Members[m].At(jj, ii)
						}
						cell[slot] = v
						slot++
					}
				}
			}
		}
	}
	return out
}
