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
	"io/ioutil"
	"os"
	"strconv"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"gopkg.in/yaml.v2"
)

// openNetCDF opens a NetCDF v3 file and hands it to read, closing the
// file again before returning. All NetCDF inputs are read once at
// startup this way.
func openNetCDF(path string, read func(*cdf.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return configErrorf("%v", err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return configErrorf("%s: %v", path, err)
	}
	return read(nc)
}

// readVar reads a numeric NetCDF variable into a dense array of the
// variable's shape.
func readVar(nc *cdf.File, name string) (*sparse.DenseArray, error) {
	dims := nc.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("no variable %q", name)
	}
	r := nc.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading %q: %v", name, err)
	}
	var data []float64
	switch b := buf.(type) {
	case []float64:
		data = b
	case []float32:
		data = make([]float64, len(b))
		for i, v := range b {
			data[i] = float64(v)
		}
	case []int32:
		data = make([]float64, len(b))
		for i, v := range b {
			data[i] = float64(v)
		}
	case []int8:
		data = make([]float64, len(b))
		for i, v := range b {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %q has unsupported type %T", name, buf)
	}
	o := sparse.ZerosDense(dims...)
	copy(o.Elements, data)
	return o, nil
}

// readFloatAttr reads a global attribute holding a string-encoded
// floating point number.
func readFloatAttr(nc *cdf.File, name string) (float64, error) {
	a := nc.Header.GetAttribute("", name)
	if a == nil {
		return 0, fmt.Errorf("no global attribute %q", name)
	}
	switch v := a.(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case []float64:
		return v[0], nil
	case []float32:
		return float64(v[0]), nil
	}
	return 0, fmt.Errorf("global attribute %q has unsupported type %T", name, a)
}

// LoadWaterMask reads a water mask from the variable "mask" (y, x) of a
// NetCDF file; nonzero values mark water cells.
func LoadWaterMask(path string) (*WaterMask, error) {
	var mask *WaterMask
	err := openNetCDF(path, func(nc *cdf.File) error {
		data, err := readVar(nc, "mask")
		if err != nil {
			return configErrorf("water mask %s: %v", path, err)
		}
		if len(data.Shape) != 2 {
			return configErrorf("water mask %s: variable mask has %d dimensions, want 2", path, len(data.Shape))
		}
		mask = &WaterMask{Data: data}
		return nil
	})
	return mask, err
}

// LoadTrafficRaster reads a monthly traffic raster from the variable
// "vte" (month, y, x) of a NetCDF file. The raster's affine transform
// is stored in the global attributes xo, yo, dx, and dy.
func LoadTrafficRaster(path, vesselType string) (*TrafficRaster, error) {
	var raster *TrafficRaster
	err := openNetCDF(path, func(nc *cdf.File) error {
		data, err := readVar(nc, "vte")
		if err != nil {
			return configErrorf("traffic raster %s: %v", path, err)
		}
		if len(data.Shape) != 3 {
			return configErrorf("traffic raster %s: variable vte has %d dimensions, want 3", path, len(data.Shape))
		}
		if data.Shape[0] != 12 {
			return configErrorf("traffic raster %s: %d monthly layers, want 12", path, data.Shape[0])
		}
		var t Affine
		for _, a := range []struct {
			name string
			dst  *float64
		}{
			{"xo", &t.Xo},
			{"yo", &t.Yo},
			{"dx", &t.Dx},
			{"dy", &t.Dy},
		} {
			v, err := readFloatAttr(nc, a.name)
			if err != nil {
				return configErrorf("traffic raster %s: %v", path, err)
			}
			*a.dst = v
		}
		raster = &TrafficRaster{VesselType: vesselType, Data: data, Transform: t}
		return nil
	})
	return raster, err
}

// LoadMeshGrid reads an ocean model mesh descriptor: grid point
// longitudes "glamt" and latitudes "gphit", and the surface water mask
// "tmask", each with shape (y, x).
func LoadMeshGrid(path string) (*MeshGrid, error) {
	var mesh *MeshGrid
	err := openNetCDF(path, func(nc *cdf.File) error {
		lons, err := readVar(nc, "glamt")
		if err != nil {
			return configErrorf("mesh %s: %v", path, err)
		}
		lats, err := readVar(nc, "gphit")
		if err != nil {
			return configErrorf("mesh %s: %v", path, err)
		}
		tmask, err := readVar(nc, "tmask")
		if err != nil {
			return configErrorf("mesh %s: %v", path, err)
		}
		for _, v := range []*sparse.DenseArray{lons, lats, tmask} {
			if len(v.Shape) != 2 {
				return configErrorf("mesh %s: variables must have 2 dimensions", path)
			}
		}
		mesh = &MeshGrid{Lons: lons, Lats: lats, TMask: tmask}
		return nil
	})
	return mesh, err
}

// LoadVesselProfiles reads the vessel capacity distribution tables,
// keyed by vessel type, and validates every profile.
func LoadVesselProfiles(path string) (map[string]*VesselTypeProfile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, configErrorf("vessel profiles: %v", err)
	}
	profiles := make(map[string]*VesselTypeProfile)
	if err := yaml.Unmarshal(b, &profiles); err != nil {
		return nil, configErrorf("vessel profiles %s: %v", path, err)
	}
	for name, p := range profiles {
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

// LoadOilAttribution reads and validates the oil attribution table.
func LoadOilAttribution(path string) (*OilAttributionTable, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, configErrorf("oil attribution: %v", err)
	}
	table := new(OilAttributionTable)
	if err := yaml.Unmarshal(b, table); err != nil {
		return nil, configErrorf("oil attribution %s: %v", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadFuelTypes reads and validates the fuel-by-vessel-type table.
func LoadFuelTypes(path string) (FuelTypeTable, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, configErrorf("fuel types: %v", err)
	}
	table := make(FuelTypeTable)
	if err := yaml.Unmarshal(b, &table); err != nil {
		return nil, configErrorf("fuel types %s: %v", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
