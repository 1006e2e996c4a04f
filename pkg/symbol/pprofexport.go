package symbol

import (
	"time"

	"github.com/google/pprof/profile"
)

// ExportPprof converts every call path accumulated in tree into a
// pprof Profile with two sample values: a plain occurrence count and
// the caller-supplied weighted value (e.g. time spent). Locations and
// functions are deduplicated by Frame so repeated frames across
// different call paths share one pprof Function/Location entry, the
// way wzprof's CPU profiler builds its location cache.
func ExportPprof(tree *CallTree, start, end time.Time, valueUnit string) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: valueType(valueUnit), Unit: valueUnit},
		},
		TimeNanos:     start.UnixNano(),
		DurationNanos: int64(end.Sub(start)),
	}

	funcsByName := make(map[string]*profile.Function)
	locsByFrame := make(map[Frame]*profile.Location)

	for _, path := range tree.Flatten() {
		locations := make([]*profile.Location, len(path.Frames))
		for i, f := range path.Frames {
			loc, ok := locsByFrame[f]
			if !ok {
				fn, ok := funcsByName[f.Function]
				if !ok {
					fn = &profile.Function{
						ID:         uint64(len(funcsByName)) + 1,
						Name:       f.Function,
						SystemName: f.Function,
						Filename:   f.File,
					}
					funcsByName[f.Function] = fn
				}
				loc = &profile.Location{
					ID:      uint64(len(locsByFrame)) + 1,
					Address: f.Address,
					Line:    []profile.Line{{Function: fn, Line: f.Line}},
				}
				locsByFrame[f] = loc
			}
			// pprof orders a sample's locations leaf-first; Flatten
			// returns root-first, so reverse on the way in.
			locations[len(path.Frames)-1-i] = loc
		}

		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: locations,
			Value:    []int64{int64(path.Count), path.Value},
		})
	}

	prof.Location = make([]*profile.Location, len(locsByFrame))
	for _, loc := range locsByFrame {
		prof.Location[loc.ID-1] = loc
	}
	prof.Function = make([]*profile.Function, len(funcsByName))
	for _, fn := range funcsByName {
		prof.Function[fn.ID-1] = fn
	}

	return prof
}

func valueType(unit string) string {
	switch unit {
	case "nanoseconds":
		return "cpu"
	default:
		return "value"
	}
}
