package matcher

import "github.com/carepoint/backend/internal/domain"

// Rule routes any of its keywords, matched as substrings of the lower-cased
// symptom text, to a specialty.
type Rule struct {
	Specialty domain.Specialty
	Keywords  []string
}

// DefaultRules is evaluated in order and in full for every query.
var DefaultRules = []Rule{
	{domain.Neurology, []string{"headache", "migraine", "dizzy", "memory", "seizure", "tremor"}},
	{domain.Cardiology, []string{"chest", "heart", "breath", "pressure", "palpitation", "irregular heartbeat"}},
	{domain.Gastroenterology, []string{"stomach", "digest", "nausea", "vomit", "diarrhea", "constipation", "acid reflux", "bowel"}},
	{domain.Dermatology, []string{"skin", "rash", "itch", "acne", "mole", "eczema"}},
	{domain.Orthopedics, []string{"joint", "muscle", "pain", "back", "arthritis", "sprain"}},
	{domain.Pulmonology, []string{"cough", "breath", "asthma", "lung", "wheeze", "pneumonia"}},
	{domain.Otolaryngology, []string{"ear", "nose", "throat", "sinus", "hearing", "tonsil"}},
	{domain.Ophthalmology, []string{"eye", "vision", "blur", "sight"}},
	{domain.Psychiatry, []string{"anxiety", "depress", "mood", "stress", "mental", "sleep"}},
	{domain.Endocrinology, []string{"diabetes", "thyroid", "hormones", "fatigue", "weight", "thirst"}},
	{domain.ObstetricsGynecology, []string{"period", "pregnancy", "vaginal", "menstrual"}},
	{domain.Urology, []string{"urinate", "bladder", "kidney", "prostate"}},
	{domain.AllergyImmunology, []string{"allerg", "immune", "hives", "sneez"}},
}

// Fallback is used when no rule matches.
const Fallback = domain.FamilyMedicine

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis", "Garcia", "Rodriguez", "Wilson",
	"Martinez", "Anderson", "Taylor", "Thomas", "Hernandez", "Moore", "Martin", "Jackson", "Thompson", "White",
}

var streetNames = []string{
	"Main", "Oak", "Maple", "Park", "Elm", "Washington", "Lake", "Hill", "Pine", "Cedar",
	"Walnut", "Highland", "Meadow", "Forest", "River", "Valley", "Summit", "Willow", "Spring", "Sunset",
}
