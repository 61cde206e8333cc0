package geocode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
)

var zonaPattern = regexp.MustCompile(`(?i)zona\s*(\d{1,2})`)

// AssembleAddress builds a compact Guatemalan-style address line from a
// structured reverse-geocoding response: street + house number, the
// capital's "Zona N" when any address component mentions one, then
// neighbourhood, city and state, deduplicated.
func AssembleAddress(addr map[string]any) string {
	if len(addr) == 0 {
		return ""
	}

	road := firstAddressField(addr, "road", "pedestrian", "footway", "path")
	house := domain.Stringify(addr["house_number"])
	suburb := firstAddressField(addr, "neighbourhood", "suburb", "quarter")
	city := firstAddressField(addr, "city", "town", "village", "municipality")
	if city == "" {
		city = "Ciudad de Guatemala"
	}
	state := domain.Stringify(addr["state"])
	if state == "" {
		state = "Guatemala"
	}

	zona := bestZona(addr)
	if zona != "" && strings.EqualFold(suburb, zona) {
		suburb = ""
	}

	line1 := uniqJoin([]string{road, house}, " ")
	return uniqJoin([]string{line1, zona, suburb, city, state}, ", ")
}

// bestZona picks the highest "Zona N" mentioned anywhere in the address
// components; districts are often tagged inconsistently and the higher
// number is the more specific one in practice.
func bestZona(addr map[string]any) string {
	best := 0
	for _, value := range addr {
		for _, match := range zonaPattern.FindAllStringSubmatch(domain.Stringify(value), -1) {
			if n, err := strconv.Atoi(match[1]); err == nil && n > best {
				best = n
			}
		}
	}
	if best == 0 {
		return ""
	}
	return "Zona " + strconv.Itoa(best)
}

func firstAddressField(addr map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := domain.Stringify(addr[key]); v != "" {
			return v
		}
	}
	return ""
}

func uniqJoin(parts []string, sep string) string {
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		v := strings.TrimSpace(part)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return strings.Join(out, sep)
}
