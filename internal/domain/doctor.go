package domain

// Specialty is a medical practice area a symptom description is routed to.
type Specialty string

const (
	Neurology            Specialty = "Neurology"
	Cardiology           Specialty = "Cardiology"
	Gastroenterology     Specialty = "Gastroenterology"
	Dermatology          Specialty = "Dermatology"
	Orthopedics          Specialty = "Orthopedics"
	Pulmonology          Specialty = "Pulmonology"
	Otolaryngology       Specialty = "Otolaryngology (ENT)"
	Ophthalmology        Specialty = "Ophthalmology"
	Psychiatry           Specialty = "Psychiatry"
	Endocrinology        Specialty = "Endocrinology"
	ObstetricsGynecology Specialty = "Obstetrics & Gynecology"
	Urology              Specialty = "Urology"
	AllergyImmunology    Specialty = "Allergy & Immunology"
	FamilyMedicine       Specialty = "Family Medicine"
)

// SymptomQuery is a free-text symptom description plus a location string.
type SymptomQuery struct {
	Symptoms string `json:"symptoms"`
	Location string `json:"location"`
}

// DoctorRecommendation is a synthetic doctor record generated per query.
type DoctorRecommendation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Specialty    Specialty `json:"specialty"`
	Address      string    `json:"address"`
	DistanceText string    `json:"distance"`
	Phone        string    `json:"phone"`
	Rating       int       `json:"rating"`
}

// RecommendationResponse wraps a recommendation list with the matched specialties
type RecommendationResponse struct {
	Specialties []Specialty            `json:"specialties"`
	Doctors     []DoctorRecommendation `json:"doctors"`
	Success     bool                   `json:"success"`
}
