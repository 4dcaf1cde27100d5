package collector

import (
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
)

type Numeric interface {
	constraints.Integer | constraints.Float
}

// ratio returns part/total, or 0 when total is 0.
func ratio[T Numeric](part, total T) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// makeUintParser returns a function that parses fields[i] as uint64,
// logging errors with source context and returning 0 on failure or
// when i is out of range.
func (c Config) makeUintParser(fields []string, source string) func(int) uint64 {
	return func(index int) uint64 {
		if index >= len(fields) {
			return 0
		}
		v, err := strconv.ParseUint(fields[index], 10, 64)
		if err != nil {
			c.logf("error parsing %s field[%d] = %q: %v", source, index, fields[index], err)
			return 0
		}
		return v
	}
}
