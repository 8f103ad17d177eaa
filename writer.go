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
	"encoding/csv"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
)

// csvTimeFormat is the timestamp format of the output table.
const csvTimeFormat = "2006-01-02 15:04"

var csvHeader = []string{
	"spill_date_hour",
	"spill_lat",
	"spill_lon",
	"vessel_type",
	"oil_type",
	"fuel_volume_l",
	"cargo_volume_l",
	"vessel_origin",
	"vessel_destination",
	"vessel_mmsi",
	"lagrangian_template",
}

// WriteCSV writes the spill records as a comma-delimited table, one row
// per spill.
func WriteCSV(w io.Writer, records []SpillRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.DateTime.Format(csvTimeFormat),
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			r.VesselType,
			r.OilType,
			strconv.FormatFloat(r.FuelVolume, 'f', -1, 64),
			strconv.FormatFloat(r.CargoVolume, 'f', -1, 64),
			r.Origin,
			r.Destination,
			r.MMSI,
			r.LagrangianTemplate,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the spill records to the named file. The records
// are written to a temporary file in the same directory which is
// renamed into place only after the write has fully succeeded, so a
// file at path is always a complete run, never a truncated one.
func WriteCSVFile(path string, records []SpillRecord) error {
	f, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
