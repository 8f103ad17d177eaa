/*
Copyright © 2021 the spillcast authors.
This file is part of spillcast.

spillcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

spillcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with spillcast.  If not, see <http://www.gnu.org/licenses/>.
*/

package spillcast

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// probTolerance is the allowed deviation from 1 for configured
// probability distributions.
const probTolerance = 1e-6

// NewRand returns the seedable random number generator that drives all
// sampling. Given the same seed and input tables, a run is bit-for-bit
// reproducible.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// weightedChoice draws an index from a categorical distribution
// proportional to the given weights. The weights do not need to be
// normalized. It returns ok=false when the total weight is zero.
func weightedChoice(rg *rand.Rand, weights []float64) (int, bool) {
	if len(weights) == 0 {
		return 0, false
	}
	w := sampleuv.NewWeighted(weights, rg)
	return w.Take()
}

// clamp limits v to the interval [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
