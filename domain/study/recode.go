package study

// Recode clips the exposure-time variable of a dataset copy:
//
//  1. rows observed during trailing padding periods (period > J) have their
//     exposure capped at J-1, and
//  2. when an effect-reached horizon R > 0 is assumed, exposures beyond R
//     are clipped to R (the effect curve is taken as flat past R).
//
// Rule 1 runs before rule 2. The caller's dataset is never modified. Recoding
// is idempotent for a fixed horizon.
func Recode(d *Dataset, effectReached int) (*Dataset, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	out := d.Clone()
	nominal := out.Params.TimePoints

	if out.Params.ExtraTimePoints > 0 {
		for i := range out.Records {
			if out.Records[i].Period > nominal && out.Records[i].Exposure > nominal-1 {
				out.Records[i].Exposure = nominal - 1
			}
		}
	}

	if effectReached > 0 {
		for i := range out.Records {
			if out.Records[i].Exposure > effectReached {
				out.Records[i].Exposure = effectReached
			}
		}
	}

	return out, nil
}
