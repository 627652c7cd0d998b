package scale

import "strings"

// Gram and Ounce are always offered when a lookup result brings no units.
var (
	Gram  = Unit{Label: "gram (g)", GramsPerUnit: 1}
	Ounce = Unit{Label: "ounce (oz)", GramsPerUnit: 28.3495}
)

// DefaultUnits returns a fresh gram/ounce list.
func DefaultUnits() []Unit {
	return []Unit{Gram, Ounce}
}

// UnitsOrDefault drops unusable units and falls back to DefaultUnits when
// nothing is left.
func UnitsOrDefault(units []Unit) []Unit {
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if validQuantity(u.GramsPerUnit) && strings.TrimSpace(u.Label) != "" {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return DefaultUnits()
	}
	return out
}

// DefaultUnitIndex picks the unit preselected for a result: the first one
// labelled "serving", else the first.
func DefaultUnitIndex(units []Unit) int {
	for i, u := range units {
		if strings.EqualFold(strings.TrimSpace(u.Label), "serving") {
			return i
		}
	}
	return 0
}

// FindUnit returns the unit whose label matches case-insensitively. A
// label such as "gram (g)" also answers to "gram" and "g".
func FindUnit(units []Unit, label string) (Unit, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Unit{}, false
	}
	for _, u := range units {
		if strings.EqualFold(u.Label, label) {
			return u, true
		}
	}
	for _, u := range units {
		for _, name := range shortNames(u.Label) {
			if strings.EqualFold(name, label) {
				return u, true
			}
		}
	}
	return Unit{}, false
}

// shortNames splits "ounce (oz)" into "ounce" and "oz".
func shortNames(label string) []string {
	long, rest, ok := strings.Cut(label, "(")
	if !ok {
		return nil
	}
	abbr, _, _ := strings.Cut(rest, ")")
	var names []string
	for _, n := range []string{long, abbr} {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
