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
	"time"

	"golang.org/x/exp/rand"
)

// SampleDateTime draws a spill date and hour from [start, end]
// inclusive. The month is drawn from monthWeights (12 elements,
// January first); a nil monthWeights means all months are equally
// likely. The day is uniform among the period's days in the drawn month
// and the hour is uniform in [0, 23]. Dates are naive local times of
// the model domain.
func SampleDateTime(start, end time.Time, monthWeights []float64, rg *rand.Rand) (time.Time, error) {
	if end.Before(start) {
		return time.Time{}, configErrorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if monthWeights == nil {
		monthWeights = make([]float64, 12)
		for i := range monthWeights {
			monthWeights[i] = 1
		}
	}
	if len(monthWeights) != 12 {
		return time.Time{}, configErrorf("month weights must have 12 elements, got %d", len(monthWeights))
	}

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	// Zero out months with no days in the period so the weighted draw
	// cannot pick an unrepresented month.
	daysByMonth := make([][]time.Time, 12)
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		m := int(d.Month()) - 1
		daysByMonth[m] = append(daysByMonth[m], d)
	}
	weights := make([]float64, 12)
	for m := range weights {
		if len(daysByMonth[m]) > 0 {
			weights[m] = monthWeights[m]
		}
	}

	m, ok := weightedChoice(rg, weights)
	if !ok {
		return time.Time{}, configErrorf("no days in [%s, %s] have nonzero month weight",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	days := daysByMonth[m]
	day := days[rg.Intn(len(days))]
	return day.Add(time.Duration(rg.Intn(24)) * time.Hour), nil
}
