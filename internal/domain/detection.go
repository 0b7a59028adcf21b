package domain

import (
	"time"

	"github.com/carepoint/backend/pkg/utils"
)

// Mode selects the label set a detection is reported in.
type Mode string

const (
	ModeSkinCancer Mode = "skin-cancer"
	ModeEczema     Mode = "eczema"
)

const (
	LabelBenign    = "Benign"
	LabelMalignant = "Malignant"
	LabelEczema    = "Eczema"
	LabelNoEczema  = "No Eczema"
)

// Labels returns the (positive, negative) labels for the mode.
func (m Mode) Labels() (positive, negative string) {
	if m == ModeEczema {
		return LabelEczema, LabelNoEczema
	}
	return LabelMalignant, LabelBenign
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSkinCancer || m == ModeEczema
}

// HasLabel reports whether label belongs to the mode's label set.
func (m Mode) HasLabel(label string) bool {
	pos, neg := m.Labels()
	return label == pos || label == neg
}

// ThresholdConfig holds the ABCD cutoffs, each in [0,1].
type ThresholdConfig struct {
	Asymmetry float64 `json:"asymmetry"`
	Border    float64 `json:"border"`
	Color     float64 `json:"color"`
	Diameter  float64 `json:"diameter"`
}

// DefaultThresholds is used until a caller stores its own configuration.
var DefaultThresholds = ThresholdConfig{
	Asymmetry: 0.35,
	Border:    0.5,
	Color:     0.25,
	Diameter:  0.6,
}

// NewThresholdConfig builds a configuration with every value clamped to [0,1].
func NewThresholdConfig(asymmetry, border, color, diameter float64) ThresholdConfig {
	return ThresholdConfig{
		Asymmetry: asymmetry,
		Border:    border,
		Color:     color,
		Diameter:  diameter,
	}.Clamp()
}

// Clamp returns a copy with every value limited to [0,1].
func (t ThresholdConfig) Clamp() ThresholdConfig {
	return ThresholdConfig{
		Asymmetry: utils.Clamp(t.Asymmetry, 0, 1),
		Border:    utils.Clamp(t.Border, 0, 1),
		Color:     utils.Clamp(t.Color, 0, 1),
		Diameter:  utils.Clamp(t.Diameter, 0, 1),
	}
}

// Metrics are the four heuristic measurements of one image.
type Metrics struct {
	Asymmetry          float64 `json:"asymmetry"`
	BorderIrregularity float64 `json:"border_irregularity"`
	ColorVariance      float64 `json:"color_variance"`
	SkinRatio          float64 `json:"skin_ratio"`
}

// Detection sources.
const (
	SourceHeuristic = "heuristic"
	SourceRemote    = "remote"
	SourceDemo      = "demo-session"
	SourceFallback  = "fallback"
)

// DetectionResult is the immutable outcome of one scoring or classification call.
type DetectionResult struct {
	ID         string    `json:"id"`
	Mode       Mode      `json:"mode"`
	Prediction string    `json:"prediction"`
	Confidence float64   `json:"confidence"`
	Score      float64   `json:"score"`
	Metrics    *Metrics  `json:"metrics,omitempty"`
	Source     string    `json:"source"`
	Degraded   bool      `json:"degraded"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DetectionResponse wraps a detection result for the API.
type DetectionResponse struct {
	Data    DetectionResult `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
}
