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
	"testing"
	"time"
)

func TestSampleDateTimeBounds(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC)
	rg := NewRand(12)

	for i := 0; i < 1000; i++ {
		d, err := SampleDateTime(start, end, nil, rg)
		if err != nil {
			t.Fatal(err)
		}
		if d.Before(start) || d.After(end.Add(23*time.Hour)) {
			t.Fatalf("draw %d: %s outside [%s, %s]", i, d, start, end)
		}
		if d.Minute() != 0 || d.Second() != 0 {
			t.Fatalf("draw %d: %s is not on the hour", i, d)
		}
	}
}

func TestSampleDateTimeMonthWeights(t *testing.T) {
	start := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC)
	rg := NewRand(12)

	// All weight on June.
	weights := make([]float64, 12)
	weights[5] = 1
	for i := 0; i < 200; i++ {
		d, err := SampleDateTime(start, end, weights, rg)
		if err != nil {
			t.Fatal(err)
		}
		if d.Month() != time.June {
			t.Fatalf("draw %d: month %s, want June", i, d.Month())
		}
	}
}

func TestSampleDateTimeShortPeriod(t *testing.T) {
	// A one-day period leaves exactly 24 possible datetimes.
	day := time.Date(2017, 6, 15, 0, 0, 0, 0, time.UTC)
	rg := NewRand(12)
	for i := 0; i < 100; i++ {
		d, err := SampleDateTime(day, day, nil, rg)
		if err != nil {
			t.Fatal(err)
		}
		if d.Year() != 2017 || d.Month() != time.June || d.Day() != 15 {
			t.Fatalf("draw %d: have %s, want 2017-06-15", i, d)
		}
	}
}

func TestSampleDateTimeErrors(t *testing.T) {
	start := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	rg := NewRand(12)

	if _, err := SampleDateTime(start, start.AddDate(0, 0, -1), nil, rg); err == nil {
		t.Error("end before start should be rejected")
	}

	if _, err := SampleDateTime(start, start.AddDate(1, 0, 0), []float64{1, 2, 3}, rg); err == nil {
		t.Error("month weights with 3 elements should be rejected")
	}

	// All weight on a month outside the period.
	weights := make([]float64, 12)
	weights[11] = 1
	if _, err := SampleDateTime(start, start.AddDate(0, 1, 0), weights, rg); err == nil {
		t.Error("weights excluding every period month should be rejected")
	}
}
