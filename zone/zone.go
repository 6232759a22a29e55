// Package zone defines the AVR zone and tuner band enumerations.
package zone

// Zone identifies one of the logically independent outputs of the AVR.
// All is a pseudo-zone used to observe updates across every zone.
type Zone int

const (
	Main Zone = iota
	Zone2
	Zone3
	HDZone
	All
)

// Code returns the single-character wire code for the zone.
// The All pseudo-zone has no wire representation.
func (z Zone) Code() string {
	switch z {
	case Main:
		return "1"
	case Zone2:
		return "2"
	case Zone3:
		return "3"
	case HDZone:
		return "Z"
	}
	return ""
}

func (z Zone) String() string {
	switch z {
	case Main:
		return "Main Zone"
	case Zone2:
		return "Zone 2"
	case Zone3:
		return "Zone 3"
	case HDZone:
		return "HDZone"
	case All:
		return "All Zones"
	}
	return "Unknown Zone"
}

// FromCode maps a wire code back to a zone.
func FromCode(code string) (Zone, bool) {
	switch code {
	case "1":
		return Main, true
	case "2":
		return Zone2, true
	case "3":
		return Zone3, true
	case "Z":
		return HDZone, true
	}
	return 0, false
}

// RealZones lists the addressable zones in wire order.
func RealZones() []Zone {
	return []Zone{Main, Zone2, Zone3, HDZone}
}

// TunerBand selects the AM or FM tuner band.
type TunerBand int

const (
	BandAM TunerBand = iota
	BandFM
)

func (b TunerBand) String() string {
	if b == BandAM {
		return "AM"
	}
	return "FM"
}
