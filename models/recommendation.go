package models

// GarmentTypes are the garments a customer can ask tailors for.
var GarmentTypes = []string{"Shirt", "Pants", "Kurta", "Saree", "Blouse", "Dress"}

// RecommendationRequest is the customer's search for tailors.
type RecommendationRequest struct {
	GarmentType      string `json:"garmentType" validate:"required,garment"`
	DesignDetails    string `json:"designDetails" validate:"required,min=3"`
	CustomerLocation string `json:"customerLocation" validate:"required,min=3"`
}

// TailorCandidate is one generated tailor match. The list order is the relevance ranking.
type TailorCandidate struct {
	TailorID           string   `json:"tailorId"`
	Name               string   `json:"name"`
	ShopName           string   `json:"shopName"`
	Location           string   `json:"location"`
	Rating             float64  `json:"rating"`
	GarmentSpecialties []string `json:"garmentSpecialties"`
	DesignExpertise    []string `json:"designExpertise"`
	Distance           float64  `json:"distance"` // km, estimated by the model
}
