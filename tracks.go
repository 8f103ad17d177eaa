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
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"golang.org/x/exp/rand"
)

// Track is one vessel transit recorded in automatic identification
// system (AIS) data: the track geometry plus the voyage attributes
// needed to attribute an oil type to a spill from the vessel.
type Track struct {
	Geom        geom.Geom
	Length      float64 // vessel length [m]
	Origin      string
	Destination string
	MMSI        string
	Duration    time.Duration

	bounds *geom.Bounds
}

// trackRow is the shapefile attribute layout of one AIS track record.
type trackRow struct {
	Geom   geom.Geom
	Length float64 `shp:"LENGTH"`
	Origin string  `shp:"FROM_"`
	Dest   string  `shp:"TO"`
	MMSI   float64 `shp:"MMSI_NUM"`
	StDate string  `shp:"ST_DATE"`
	EnDate string  `shp:"EN_DATE"`
}

// aisTimeLayouts are the timestamp formats found in AIS shapefile
// attribute tables.
var aisTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseAISTime(s string) (time.Time, error) {
	for _, l := range aisTimeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("spillcast: unrecognized AIS timestamp %q", s)
}

// TrackStore holds AIS vessel tracks by vessel type, loaded once at
// startup and read-only afterwards.
type TrackStore struct {
	tracks map[string][]*Track
}

// LoadTracks reads the AIS track shapefile for each vessel type from
// dir. The shapefiles are named "<vesselType>.shp" and carry LENGTH,
// FROM_, TO, MMSI_NUM, ST_DATE, and EN_DATE attributes. A missing
// shapefile for a vessel type is a configuration error.
func LoadTracks(dir string, vesselTypes []string) (*TrackStore, error) {
	s := &TrackStore{tracks: make(map[string][]*Track)}
	for _, vt := range vesselTypes {
		fname := filepath.Join(dir, vt+".shp")
		d, err := shp.NewDecoder(fname)
		if err != nil {
			return nil, configErrorf("opening AIS tracks for vessel type %s: %v", vt, err)
		}
		for {
			var row trackRow
			if more := d.DecodeRow(&row); !more {
				break
			}
			st, err := parseAISTime(row.StDate)
			if err != nil {
				d.Close()
				return nil, configErrorf("%s: %v", fname, err)
			}
			en, err := parseAISTime(row.EnDate)
			if err != nil {
				d.Close()
				return nil, configErrorf("%s: %v", fname, err)
			}
			s.tracks[vt] = append(s.tracks[vt], &Track{
				Geom:        row.Geom,
				Length:      row.Length,
				Origin:      row.Origin,
				Destination: row.Dest,
				MMSI:        fmt.Sprintf("%.0f", row.MMSI),
				Duration:    en.Sub(st),
				bounds:      row.Geom.Bounds(),
			})
		}
		if err := d.Error(); err != nil {
			d.Close()
			return nil, configErrorf("reading AIS tracks for vessel type %s: %v", vt, err)
		}
		d.Close()
	}
	return s, nil
}

// AddTracks registers in-memory tracks for a vessel type. It is mainly
// useful for assembling a store without shapefiles.
func (s *TrackStore) AddTracks(vesselType string, tracks ...*Track) {
	if s.tracks == nil {
		s.tracks = make(map[string][]*Track)
	}
	for _, t := range tracks {
		if t.bounds == nil {
			t.bounds = t.Geom.Bounds()
		}
		s.tracks[vesselType] = append(s.tracks[vesselType], t)
	}
}

// SampleTrack draws a track of the given vessel type passing through
// cell, weighted by the vessel traffic exposure each track represents
// there: the fraction of the track inside the cell times the track
// duration. It returns an EmptyDomainError when no track of the type
// touches the cell.
func (s *TrackStore) SampleTrack(vesselType string, cell *geom.Bounds, rg *rand.Rand) (*Track, error) {
	var candidates []*Track
	var weights []float64
	for _, t := range s.tracks[vesselType] {
		if !t.bounds.Overlaps(cell) {
			continue
		}
		total := trackLength(t.Geom)
		if total == 0 {
			continue
		}
		inCell := trackLengthWithin(t.Geom, cell)
		// Cartesian rather than spherical lengths: the error is small on
		// a raster-cell-sized patch, and the ratio is used consistently.
		w := inCell / total * t.Duration.Seconds()
		if w > 0 {
			candidates = append(candidates, t)
			weights = append(weights, w)
		}
	}
	i, ok := weightedChoice(rg, weights)
	if !ok {
		return nil, &EmptyDomainError{VesselType: vesselType, What: "no AIS tracks in the sampled cell"}
	}
	return candidates[i], nil
}

// trackLength returns the total length of a line geometry.
func trackLength(g geom.Geom) float64 {
	switch t := g.(type) {
	case geom.LineString:
		return t.Length()
	case geom.MultiLineString:
		var l float64
		for _, ls := range t {
			l += ls.Length()
		}
		return l
	}
	return 0
}

// trackLengthWithin returns the length of the part of a line geometry
// inside bounds b.
func trackLengthWithin(g geom.Geom, b *geom.Bounds) float64 {
	switch t := g.(type) {
	case geom.LineString:
		return lineStringLengthWithin(t, b)
	case geom.MultiLineString:
		var l float64
		for _, ls := range t {
			l += lineStringLengthWithin(ls, b)
		}
		return l
	}
	return 0
}

func lineStringLengthWithin(ls geom.LineString, b *geom.Bounds) float64 {
	var l float64
	for i := 0; i < len(ls)-1; i++ {
		l += segmentLengthWithin(ls[i], ls[i+1], b)
	}
	return l
}

// segmentLengthWithin clips the segment p0→p1 to the axis-aligned box b
// (Liang-Barsky) and returns the length of the clipped part.
func segmentLengthWithin(p0, p1 geom.Point, b *geom.Bounds) float64 {
	dx := p1.X - p0.X
	dy := p1.Y - p0.Y
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, p0.X - b.Min.X},
		{dx, b.Max.X - p0.X},
		{-dy, p0.Y - b.Min.Y},
		{dy, b.Max.Y - p0.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return (t1 - t0) * math.Hypot(dx, dy)
}
