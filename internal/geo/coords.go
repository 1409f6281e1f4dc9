package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// CellLevel is the S2 level used to bucket shared locations (roughly 300 m cells).
const CellLevel = 15

// Valid reports whether lat/lng are finite degrees inside the usual ranges.
func Valid(lat, lng float64) bool {
	for _, v := range []float64{lat, lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

// CellToken returns the token of the S2 cell containing the point at CellLevel.
// Callers must check Valid first.
func CellToken(lat, lng float64) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng)).Parent(CellLevel).ToToken()
}
