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

import "fmt"

// ConfigurationError reports malformed or inconsistent static input data:
// probabilities that don't sum to one, missing required table entries,
// unreadable files. It is fatal and aborts the run.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "spillcast: configuration: " + e.Reason
}

// configErrorf creates a ConfigurationError from a format string.
func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// EmptyDomainError reports that a sampling domain has zero total weight,
// for example a vessel type with no traffic in any water cell, or a raster
// cell containing no vessel tracks. It is recoverable by resampling with a
// different vessel type or location, up to the configured retry budget.
type EmptyDomainError struct {
	VesselType string
	What       string
}

func (e *EmptyDomainError) Error() string {
	if e.VesselType == "" {
		return fmt.Sprintf("spillcast: empty domain: %s", e.What)
	}
	return fmt.Sprintf("spillcast: empty domain for vessel type %s: %s", e.VesselType, e.What)
}

// AttributionError reports that no oil type could be resolved for a
// vessel/origin/destination combination, even at the vessel-type-wide
// default level. It signals a coverage gap in the attribution table and is
// recoverable by resampling the origin and destination.
type AttributionError struct {
	VesselType  string
	Origin      string
	Destination string
}

func (e *AttributionError) Error() string {
	return fmt.Sprintf("spillcast: no oil type attribution for vessel type %q (origin %q, destination %q)",
		e.VesselType, e.Origin, e.Destination)
}
