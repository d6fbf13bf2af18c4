package geo

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// coordinates using the spherical law of cosines.
//
// Behavior:
//   - Latitude/longitude are degrees; callers validate the ranges
//     [-90,90] / [-180,180]. Out-of-range input propagates through the
//     trigonometry rather than erroring.
//   - The acos argument is clamped to [-1,1] so floating-point rounding on
//     identical or antipodal points cannot produce NaN.
//
// Example:
//
//	geo.DistanceKm(28.61, 77.20, 28.70, 77.10) // ≈ 14 km
func DistanceKm(aLat, aLng, bLat, bLng float64) float64 {
	la, lb := toRad(aLat), toRad(bLat)
	dLng := toRad(bLng - aLng)

	c := math.Sin(la)*math.Sin(lb) + math.Cos(la)*math.Cos(lb)*math.Cos(dLng)
	c = math.Max(-1, math.Min(1, c))

	return earthRadiusKm * math.Acos(c)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
