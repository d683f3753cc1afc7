// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/medscan/pkg/types"
)

// Walk-order tiers for the pick route. Refrigerated items are pulled first so
// they spend the least time off the shelf; unresolved locations go last,
// where the pharmacist handles them by hand.
const (
	tierFridge     = 0
	tierFrontShelf = 1
	tierBackShelf  = 2
	tierUnassigned = 3
)

// SortRoute orders records for pick-route efficiency: location tier, then
// the numeric shelf/row/bin components of the specific location, then name.
// The sort is stable so equal records keep their aggregation order.
func SortRoute(records []types.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := tier(records[i].Location), tier(records[j].Location)
		if ti != tj {
			return ti < tj
		}
		if c := compareSpecific(records[i].Location.Specific, records[j].Location.Specific); c != 0 {
			return c < 0
		}
		return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
	})
}

func tier(l types.Location) int {
	switch strings.ToUpper(l.General) {
	case "", types.LocationNotAssigned:
		return tierUnassigned
	case "FRIDGE", "REF", "REFRIGERATOR":
		return tierFridge
	case "PHRM", "VIT":
		return tierFrontShelf
	default:
		// STR, IV, and any other coded area shelve in the back.
		return tierBackShelf
	}
}

// compareSpecific compares shelf positions like "A-3-2" component-wise:
// numeric components compare as integers, the rest alphabetically.
func compareSpecific(a, b string) int {
	as := splitComponents(a)
	bs := splitComponents(b)

	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		if aErr == nil && bErr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if as[i] != bs[i] {
			if as[i] < bs[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func splitComponents(s string) []string {
	return strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return r == '-' || r == '/' || r == '.' || r == ' '
	})
}
