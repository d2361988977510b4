package service

import (
	"math"
	"strconv"

	"fareflow/internal/domain"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two fixes in kilometers.
func HaversineKm(from, to domain.Location) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(to.Latitude - from.Latitude)
	dLon := toRad(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(from.Latitude))*math.Cos(toRad(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceFare prices a trip in whole currency units, rounded half away from zero.
func DistanceFare(distanceKm, ratePerKm float64) int64 {
	return int64(math.Round(distanceKm * ratePerKm))
}

// FixedFare returns the route's configured fare, or defaultFare if none is set.
func FixedFare(route domain.Route, defaultFare int64) int64 {
	if route.FareAmount > 0 {
		return route.FareAmount
	}
	return defaultFare
}

func formatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}
