package domain

// ============================================================
// Location picker
// ============================================================

// GeocodeFailedAddress is the sentinel surfaced when reverse geocoding
// fails. The selection callback still fires with it so the caller is never
// left waiting.
const GeocodeFailedAddress = "Error in address fetching."

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationSelection is the outcome of one map click: the clicked coordinates
// plus the reverse-geocoded display address (or GeocodeFailedAddress).
type LocationSelection struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// MapView is the declarative (center, zoom) pair the map should show.
// Re-applying an unchanged view is a no-op.
type MapView struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}
