package domain

import (
	"math"
	"strconv"
	"strings"
)

// GeoPoint is a WGS84 coordinate pair from a submission's geolocation
// field.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// ParseGeoPoint accepts the two shapes the survey platform emits:
// an array [lat, lon, alt, accuracy] or a space/comma separated "lat
// lon" string. Returns nil when no finite pair can be extracted.
func ParseGeoPoint(raw any) *GeoPoint {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		if len(v) < 2 {
			return nil
		}
		return geoPointFrom(Stringify(v[0]), Stringify(v[1]))
	default:
		s := strings.ReplaceAll(strings.TrimSpace(Stringify(raw)), ",", " ")
		parts := strings.Fields(s)
		if len(parts) < 2 {
			return nil
		}
		return geoPointFrom(parts[0], parts[1])
	}
}

func geoPointFrom(latStr, lonStr string) *GeoPoint {
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil
	}
	return &GeoPoint{Lat: lat, Lon: lon}
}
