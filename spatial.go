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
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"golang.org/x/exp/rand"
)

// Affine converts between raster row/column indices and geographic
// coordinates. Xo and Yo are the coordinates of the raster's lower-left
// corner and Dx and Dy are the cell edge lengths in degrees.
type Affine struct {
	Xo, Yo float64
	Dx, Dy float64
}

// CellCenter returns the longitude and latitude of the center of the
// cell at the given row and column.
func (a Affine) CellCenter(row, col int) (lon, lat float64) {
	return a.Xo + a.Dx*(float64(col)+0.5), a.Yo + a.Dy*(float64(row)+0.5)
}

// CellBounds returns the geographic bounding box of the cell at the
// given row and column.
func (a Affine) CellBounds(row, col int) *geom.Bounds {
	b := geom.NewBounds()
	b.Min = geom.Point{X: a.Xo + a.Dx*float64(col), Y: a.Yo + a.Dy*float64(row)}
	b.Max = geom.Point{X: a.Xo + a.Dx*float64(col+1), Y: a.Yo + a.Dy*float64(row+1)}
	return b
}

// WaterMask is a boolean grid aligned to the traffic rasters that marks
// which cells are ocean within the model domain. It is read-only.
type WaterMask struct {
	// Data holds 1 for water cells and 0 for land or out-of-domain cells.
	Data *sparse.DenseArray
}

// IsWater reports whether the cell at the given row and column is water.
func (m *WaterMask) IsWater(row, col int) bool {
	return m.Data.Get(row, col) != 0
}

// TrafficRaster holds monthly vessel traffic exposure [hours/km²] for
// one vessel type on a regular geographic grid. Data has shape
// (months, ny, nx). It is read-only after loading.
type TrafficRaster struct {
	VesselType string
	Data       *sparse.DenseArray
	Transform  Affine
}

// Aggregate sums the monthly layers into a single (ny, nx) density grid.
func (r *TrafficRaster) Aggregate() *sparse.DenseArray {
	months, ny, nx := r.Data.Shape[0], r.Data.Shape[1], r.Data.Shape[2]
	o := sparse.ZerosDense(ny, nx)
	for m := 0; m < months; m++ {
		for i := 0; i < ny*nx; i++ {
			o.Elements[i] += r.Data.Elements[m*ny*nx+i]
		}
	}
	return o
}

// MonthlyTotals returns the total traffic exposure in water cells for
// each monthly layer. The totals are used to weight the spill date draw.
func (r *TrafficRaster) MonthlyTotals(mask *WaterMask) []float64 {
	months, ny, nx := r.Data.Shape[0], r.Data.Shape[1], r.Data.Shape[2]
	totals := make([]float64, months)
	for m := 0; m < months; m++ {
		for row := 0; row < ny; row++ {
			for col := 0; col < nx; col++ {
				if mask.IsWater(row, col) {
					totals[m] += r.Data.Get(m, row, col)
				}
			}
		}
	}
	return totals
}

// SampleCell draws a raster cell with probability proportional to
// traffic density, restricted to water cells. Land cells get zero
// weight. It returns an EmptyDomainError when the masked raster has no
// traffic anywhere.
func SampleCell(density *sparse.DenseArray, mask *WaterMask, rg *rand.Rand) (row, col int, err error) {
	ny, nx := density.Shape[0], density.Shape[1]
	weights := make([]float64, ny*nx)
	for r := 0; r < ny; r++ {
		for c := 0; c < nx; c++ {
			if mask.IsWater(r, c) {
				weights[r*nx+c] = density.Get(r, c)
			}
		}
	}
	i, ok := weightedChoice(rg, weights)
	if !ok {
		return 0, 0, &EmptyDomainError{What: "no traffic in any water cell"}
	}
	return i / nx, i % nx, nil
}

// MeshGrid holds the horizontal coordinates and land mask of an ocean
// model grid. It refines a sampled raster cell to the location of a
// model water point.
type MeshGrid struct {
	// Lons and Lats are the model grid point coordinates, shape (ny, nx).
	Lons, Lats *sparse.DenseArray
	// TMask is 1 at water points and 0 at land points, shape (ny, nx).
	TMask *sparse.DenseArray
}

// subgridShifts are the nine uniformly distributed sub-cell positions,
// in units of one third of the local grid spacing.
var subgridShifts = [][2]float64{
	{0, 0},
	{1. / 3, 0},
	{1. / 3, 1. / 3},
	{0, 1. / 3},
	{-1. / 3, 1. / 3},
	{-1. / 3, 0},
	{-1. / 3, -1. / 3},
	{0, -1. / 3},
	{1. / 3, -1. / 3},
}

// Refine picks a random model water point within the given bounds and
// shifts it to one of nine sub-cell positions. It reports ok=false when
// the bounds contain no water points.
func (g *MeshGrid) Refine(b *geom.Bounds, rg *rand.Rand) (lon, lat float64, ok bool) {
	ny, nx := g.TMask.Shape[0], g.TMask.Shape[1]
	var candidates []int
	for i := 0; i < ny*nx; i++ {
		x := g.Lons.Elements[i]
		y := g.Lats.Elements[i]
		if g.TMask.Elements[i] != 0 &&
			x > b.Min.X && x < b.Max.X && y > b.Min.Y && y < b.Max.Y {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, 0, false
	}
	i := candidates[rg.Intn(len(candidates))]
	lon = g.Lons.Elements[i]
	lat = g.Lats.Elements[i]

	// Local grid spacing from the neighboring points in each grid
	// direction, falling back to the previous neighbor at the grid edge.
	row, col := i/nx, i%nx
	jx, jy := i+1, i+nx
	if col == nx-1 {
		jx = i - 1
	}
	if row == ny-1 {
		jy = i - nx
	}
	lonDx := g.Lons.Elements[jx] - lon
	latDx := g.Lats.Elements[jx] - lat
	lonDy := g.Lons.Elements[jy] - lon
	latDy := g.Lats.Elements[jy] - lat

	shift := subgridShifts[rg.Intn(len(subgridShifts))]
	lon += lonDx*shift[0] + lonDy*shift[1]
	lat += latDx*shift[0] + latDy*shift[1]
	return lon, lat, true
}
