package heat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidZone is returned when a zone selection cannot be parsed.
var ErrInvalidZone = errors.New("invalid zone")

// AllZonesKey is the wire value of the "no filter" selection.
const AllZonesKey = "all"

// ZoneFilter selects either a single zone or every zone.
// The zero value selects every zone.
type ZoneFilter struct {
	zone Zone
	only bool
}

// AllZones is the "no filter" selection.
var AllZones = ZoneFilter{}

// OnlyZone returns a filter that keeps points of zone z.
func OnlyZone(z Zone) ZoneFilter {
	return ZoneFilter{zone: z, only: true}
}

// ParseZoneFilter parses "all" (or empty) and integer zone ids.
func ParseZoneFilter(s string) (ZoneFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllZonesKey) {
		return AllZones, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return ZoneFilter{}, fmt.Errorf("%w: %q", ErrInvalidZone, s)
	}
	return OnlyZone(Zone(n)), nil
}

// Match reports whether p passes the filter.
func (f ZoneFilter) Match(p Point) bool {
	return !f.only || p.Zone == f.zone
}

func (f ZoneFilter) String() string {
	if !f.only {
		return AllZonesKey
	}
	return strconv.Itoa(int(f.zone))
}

// Filter returns the points of d that pass f, in dataset order.
// An absent dataset yields nil; the "all" filter yields every point.
func Filter(d *Dataset, f ZoneFilter) []Point {
	if d == nil {
		return nil
	}
	out := make([]Point, 0, d.Len())
	for _, p := range d.All {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
