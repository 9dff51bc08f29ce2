package study

import (
	"fmt"
	"sort"

	"sweffect/internal/errors"
)

// Record is one (unit, period) observation from a stepped-wedge rollout.
// Exposure counts periods since the unit's treatment start and is only
// meaningful on treated rows; untreated rows carry 0.
type Record struct {
	UnitID   int     `json:"unit_id"`
	Period   int     `json:"period"`
	Treated  int     `json:"treated"`
	Exposure int     `json:"exposure_time"`
	Outcome  float64 `json:"outcome"`
}

// DesignParams describes the shape of the rollout design
type DesignParams struct {
	// TimePoints is J, the nominal number of distinct periods.
	TimePoints int `json:"n_time_points"`
	// ExtraTimePoints counts trailing padding periods observed beyond the
	// nominal design.
	ExtraTimePoints int `json:"n_extra_time_points"`
}

// Dataset is an ordered collection of longitudinal records plus its design
// parameters. Estimation never mutates a caller's dataset; recoding works on
// a copy.
type Dataset struct {
	Records []Record     `json:"records"`
	Params  DesignParams `json:"params"`
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	records := make([]Record, len(d.Records))
	copy(records, d.Records)
	return &Dataset{Records: records, Params: d.Params}
}

// Validate checks structural invariants of the dataset
func (d *Dataset) Validate() error {
	if d == nil || len(d.Records) == 0 {
		return errors.InvalidDataset("dataset has no records")
	}
	if d.Params.TimePoints < 2 {
		return errors.InvalidDataset(fmt.Sprintf("n_time_points must be at least 2, got %d", d.Params.TimePoints))
	}
	if d.Params.ExtraTimePoints < 0 {
		return errors.InvalidDataset(fmt.Sprintf("n_extra_time_points must be non-negative, got %d", d.Params.ExtraTimePoints))
	}
	maxPeriod := d.Params.TimePoints + d.Params.ExtraTimePoints
	lastExposure := make(map[int]int)
	for i, r := range d.Records {
		if r.Period < 1 || r.Period > maxPeriod {
			return errors.InvalidDataset(fmt.Sprintf("record %d: period %d outside 1..%d", i, r.Period, maxPeriod))
		}
		if r.Treated != 0 && r.Treated != 1 {
			return errors.InvalidDataset(fmt.Sprintf("record %d: treated must be 0 or 1, got %d", i, r.Treated))
		}
		if r.Exposure < 0 {
			return errors.InvalidDataset(fmt.Sprintf("record %d: exposure_time must be non-negative, got %d", i, r.Exposure))
		}
		if r.Treated == 1 && r.Exposure < 1 {
			return errors.InvalidDataset(fmt.Sprintf("record %d: treated row must have exposure_time >= 1", i))
		}
		if r.Treated == 1 {
			// Exposure is non-decreasing within a unit once treatment starts.
			if prev, ok := lastExposure[r.UnitID]; ok && r.Exposure < prev {
				return errors.InvalidDataset(fmt.Sprintf("record %d: exposure_time decreases within unit %d", i, r.UnitID))
			}
			lastExposure[r.UnitID] = r.Exposure
		}
	}
	return nil
}

// ExposureLevels returns the distinct positive exposure-time values observed
// on treated rows, in increasing order.
func (d *Dataset) ExposureLevels() []int {
	seen := make(map[int]bool)
	for _, r := range d.Records {
		if r.Treated == 1 && r.Exposure > 0 {
			seen[r.Exposure] = true
		}
	}
	levels := make([]int, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// Units returns the distinct unit IDs in first-appearance order
func (d *Dataset) Units() []int {
	seen := make(map[int]bool)
	units := make([]int, 0)
	for _, r := range d.Records {
		if !seen[r.UnitID] {
			seen[r.UnitID] = true
			units = append(units, r.UnitID)
		}
	}
	return units
}
