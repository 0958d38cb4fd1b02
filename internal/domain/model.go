package domain

import (
	"fmt"
	"strings"
)

// Model identifies one of the supported ensemble prediction systems.
type Model int

const (
	// ModelGEFS is the NCEP global ensemble, 20 perturbed members.
	ModelGEFS Model = iota
	// ModelCMC is the Canadian global ensemble, 20 members. Its members are
	// generated from distinct physics configurations and carry member-specific
	// biases, so forecast distribution parameters are kept per member.
	ModelCMC
	// ModelECMWF is the ECMWF ensemble, 50 perturbed members.
	ModelECMWF
)

// ModelSpec carries the fixed per-system properties the pipeline branches on.
type ModelSpec struct {
	Model        Model
	Name         string
	Members      int
	Exchangeable bool // One pooled parameter set vs per-member sets.
}

var modelSpecs = [...]ModelSpec{
	ModelGEFS:  {Model: ModelGEFS, Name: "GEFS", Members: 20, Exchangeable: true},
	ModelCMC:   {Model: ModelCMC, Name: "CMC", Members: 20, Exchangeable: false},
	ModelECMWF: {Model: ModelECMWF, Name: "ECMWF", Members: 50, Exchangeable: true},
}

// Spec returns the fixed properties of m.
func (m Model) Spec() ModelSpec { return modelSpecs[m] }

// String returns the canonical model identifier.
func (m Model) String() string { return modelSpecs[m].Name }

// ParseModel resolves a command-line model identifier. The set is closed;
// anything outside it is a configuration error.
func ParseModel(name string) (Model, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GEFS", "NCEP":
		return ModelGEFS, nil
	case "CMC", "CMCE":
		return ModelCMC, nil
	case "ECMWF":
		return ModelECMWF, nil
	}
	return 0, fmt.Errorf("unknown model %q (expected GEFS, CMC or ECMWF)", name)
}
