package domain

// Ensemble-mean category boundaries (mm) for the closest-member histogram.
// A mean of exactly zero is not categorized here; the dressing engine routes
// it to the climatological-POP table instead.
const (
	meanCatLight = 1.0
	meanCatHeavy = 5.0
)

// NMeanCategories is the number of ensemble-mean precipitation categories
// the closest-member statistics are stratified by.
const NMeanCategories = 3

// MeanCategory returns the stratification index for a positive ensemble
// mean: 0 light (< 1 mm), 1 moderate (< 5 mm), 2 heavy.
func MeanCategory(mean float64) int {
	switch {
	case mean < meanCatLight:
		return 0
	case mean < meanCatHeavy:
		return 1
	default:
		return 2
	}
}

// ClosestHistogram is the precomputed table of relative frequencies with
// which the verifying analysis historically fell nearest the member at each
// sorted rank of the expanded ensemble, per ensemble-mean category. The
// frequencies are the mixing weights of the ranked dressing kernels. Loaded
// read-only per invocation; built offline from many case days.
type ClosestHistogram struct {
	Ranks int
	// Freq is indexed [rank*NMeanCategories + category] and sums to 1 over
	// ranks within each category.
	Freq []float64
}

// Weight returns the mixing weight of rank within category. Ranks beyond the
// table (a run expanded with more members than the table was built for)
// weigh zero rather than panicking; the assembler validates sizes up front.
func (h *ClosestHistogram) Weight(rank, category int) float64 {
	if rank < 0 || rank >= h.Ranks || category < 0 || category >= NMeanCategories {
		return 0
	}
	return h.Freq[rank*NMeanCategories+category]
}

// Normalize rescales each category column to sum to 1. Tables assembled from
// short aggregation windows can drift from exact unit mass.
func (h *ClosestHistogram) Normalize() {
	for c := 0; c < NMeanCategories; c++ {
		sum := 0.0
		for r := 0; r < h.Ranks; r++ {
			sum += h.Freq[r*NMeanCategories+c]
		}
		if sum <= 0 {
			continue
		}
		for r := 0; r < h.Ranks; r++ {
			h.Freq[r*NMeanCategories+c] /= sum
		}
	}
}
