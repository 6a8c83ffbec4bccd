package domain

// Restaurant is the backend's restaurant resource, proxied as-is to the
// detail page. Fields beyond what the session surface needs are kept loose.
type Restaurant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AreaID   string   `json:"areaId,omitempty"`
	Cuisines []string `json:"cuisines,omitempty"`
	Rating   float64  `json:"rating,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
}
