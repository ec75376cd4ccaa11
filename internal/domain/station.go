package domain

// Station is a stop on one or more lines. Identity is the ID.
type Station struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
