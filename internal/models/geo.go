package models

// GeoData is the resolved geo-tag attached to a post. Absence of any field is
// normal; the whole struct is omitted when geolocation was unavailable.
type GeoData struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Locality  string  `json:"locality,omitempty" bson:"locality,omitempty"`
	Region    string  `json:"region,omitempty" bson:"region,omitempty"`
	Country   string  `json:"country,omitempty" bson:"country,omitempty"`
}
