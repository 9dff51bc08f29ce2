package estimation

import (
	"fmt"

	"sweffect/domain/effect"
	"sweffect/domain/study"
	"sweffect/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// FixedBasisWidth is the number of hinge or step terms fitted by the
// fixed-width families. It is tied to a seven-period nominal design; other
// period counts are rejected rather than silently truncated.
const (
	FixedBasisWidth   = 6
	FixedBasisPeriods = 7
)

// Design is the covariate specification handed to a fitting collaborator.
// Column layout of X: intercept, period dummies for periods 2..P, then the
// treatment basis block identified by TreatCols.
type Design struct {
	X         *mat.Dense
	Y         []float64
	Units     []int // dense 0-based unit index per row
	UnitCount int
	TreatCols []int
	Basis     effect.BasisKind
	// Levels are the exposure-time values the cumulative curve is indexed by:
	// the observed levels for the level basis, 1..6 for the fixed-width bases,
	// and a single pseudo-level for the no-structure family.
	Levels     []int
	TimePoints int // nominal J
}

// BuildDesign converts a recoded dataset into the design matrix required by
// the chosen family.
func BuildDesign(d *study.Dataset, fam effect.Family) (*Design, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	basis := fam.Basis()
	j := d.Params.TimePoints
	if (basis == effect.BasisHinge || basis == effect.BasisStep) && j != FixedBasisPeriods {
		return nil, errors.UnsupportedDesign(
			fmt.Sprintf("family %s assumes %d periods, dataset has %d", fam, FixedBasisPeriods, j))
	}

	levels := d.ExposureLevels()
	if len(levels) == 0 {
		return nil, errors.InvalidDataset("dataset has no treated observations")
	}

	var treatWidth int
	var curveLevels []int
	switch basis {
	case effect.BasisNone:
		treatWidth = 1
		curveLevels = []int{1}
	case effect.BasisLevel:
		treatWidth = len(levels)
		curveLevels = levels
	default:
		treatWidth = FixedBasisWidth
		curveLevels = make([]int, FixedBasisWidth)
		for k := range curveLevels {
			curveLevels[k] = k + 1
		}
	}

	maxPeriod := j + d.Params.ExtraTimePoints
	periodWidth := maxPeriod - 1 // period 1 is the reference
	p := 1 + periodWidth + treatWidth
	n := len(d.Records)

	unitIndex := make(map[int]int)
	units := make([]int, n)
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)

	levelCol := make(map[int]int, len(levels))
	for k, l := range levels {
		levelCol[l] = k
	}

	for i, r := range d.Records {
		if _, ok := unitIndex[r.UnitID]; !ok {
			unitIndex[r.UnitID] = len(unitIndex)
		}
		units[i] = unitIndex[r.UnitID]
		y[i] = r.Outcome

		x.Set(i, 0, 1) // intercept
		if r.Period > 1 {
			x.Set(i, r.Period-1, 1)
		}

		if r.Treated != 1 {
			continue
		}
		base := 1 + periodWidth
		switch basis {
		case effect.BasisNone:
			x.Set(i, base, 1)
		case effect.BasisLevel:
			x.Set(i, base+levelCol[r.Exposure], 1)
		case effect.BasisHinge:
			for k := 1; k <= FixedBasisWidth; k++ {
				if v := r.Exposure - (k - 1); v > 0 {
					x.Set(i, base+k-1, float64(v))
				}
			}
		case effect.BasisStep:
			for k := 1; k <= FixedBasisWidth; k++ {
				if r.Exposure >= k {
					x.Set(i, base+k-1, 1)
				}
			}
		}
	}

	treatCols := make([]int, treatWidth)
	for k := range treatCols {
		treatCols[k] = 1 + periodWidth + k
	}

	return &Design{
		X:          x,
		Y:          y,
		Units:      units,
		UnitCount:  len(unitIndex),
		TreatCols:  treatCols,
		Basis:      basis,
		Levels:     curveLevels,
		TimePoints: j,
	}, nil
}

// Rows returns the number of observations
func (d *Design) Rows() int {
	r, _ := d.X.Dims()
	return r
}

// Cols returns the number of design columns
func (d *Design) Cols() int {
	_, c := d.X.Dims()
	return c
}

// TreatWidth returns the native treatment-basis dimension K
func (d *Design) TreatWidth() int {
	return len(d.TreatCols)
}
