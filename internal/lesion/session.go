package lesion

import (
	"sync"

	"github.com/carepoint/backend/internal/domain"
)

const (
	demoForcedCall       = 2
	demoForcedConfidence = 0.95
)

// DemoSession reproduces the scripted demo flow in which the second scan of a
// session is reported as negative with 0.95 confidence, skipping analysis.
// It is owned by the caller; scoring without a session never does this.
type DemoSession struct {
	mu    sync.Mutex
	calls int
}

func NewDemoSession() *DemoSession {
	return &DemoSession{}
}

// Calls returns how many scans the session has seen.
func (s *DemoSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Reset starts the session over.
func (s *DemoSession) Reset() {
	s.mu.Lock()
	s.calls = 0
	s.mu.Unlock()
}

func (s *DemoSession) next(mode domain.Mode) (domain.DetectionResult, bool) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if n != demoForcedCall {
		return domain.DetectionResult{}, false
	}
	_, negative := mode.Labels()
	return domain.DetectionResult{
		Mode:       mode,
		Prediction: negative,
		Confidence: demoForcedConfidence,
		Score:      0,
		Source:     domain.SourceDemo,
	}, true
}
