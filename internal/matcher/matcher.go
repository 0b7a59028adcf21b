// Package matcher routes free-text symptom descriptions to medical
// specialties and generates synthetic doctor recommendations for them.
package matcher

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/pkg/utils"
)

// DefaultPerSpecialty is the number of doctors generated per specialty.
const DefaultPerSpecialty = 2

// Matcher evaluates a rule table against symptom text.
type Matcher struct {
	rules        []Rule
	perSpecialty int

	mu  sync.Mutex // guards rnd; *rand.Rand is not safe for concurrent use
	rnd *rand.Rand
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithRand injects the random source used for doctor fields.
func WithRand(r *rand.Rand) Option {
	return func(m *Matcher) { m.rnd = r }
}

// WithPerSpecialty sets how many doctors are generated per specialty.
func WithPerSpecialty(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.perSpecialty = n
		}
	}
}

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(m *Matcher) { m.rules = rules }
}

// New creates a matcher over DefaultRules.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		rules:        DefaultRules,
		perSpecialty: DefaultPerSpecialty,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// PerSpecialty returns the configured per-specialty count.
func (m *Matcher) PerSpecialty() int {
	return m.perSpecialty
}

// Specialties returns the deduplicated specialties matched by the text, in
// rule order. It never returns an empty slice.
func (m *Matcher) Specialties(symptoms string) []domain.Specialty {
	text := strings.ToLower(symptoms)

	seen := make(map[domain.Specialty]struct{}, len(m.rules))
	var out []domain.Specialty
	for _, rule := range m.rules {
		if !matchesAny(text, rule.Keywords) {
			continue
		}
		if _, ok := seen[rule.Specialty]; ok {
			continue
		}
		seen[rule.Specialty] = struct{}{}
		out = append(out, rule.Specialty)
	}

	if len(out) == 0 {
		out = append(out, Fallback)
	}
	return out
}

// Catalog lists every specialty the matcher can return, in rule order,
// ending with the fallback.
func (m *Matcher) Catalog() []domain.Specialty {
	seen := make(map[domain.Specialty]struct{}, len(m.rules)+1)
	out := make([]domain.Specialty, 0, len(m.rules)+1)
	for _, rule := range m.rules {
		if _, ok := seen[rule.Specialty]; ok {
			continue
		}
		seen[rule.Specialty] = struct{}{}
		out = append(out, rule.Specialty)
	}
	if _, ok := seen[Fallback]; !ok {
		out = append(out, Fallback)
	}
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Match returns PerSpecialty synthetic doctors for every matched specialty.
func (m *Matcher) Match(query domain.SymptomQuery) []domain.DoctorRecommendation {
	return m.Generate(m.Specialties(query.Symptoms), query.Location)
}

// Generate synthesizes doctors for the given specialties, in order.
func (m *Matcher) Generate(specialties []domain.Specialty, location string) []domain.DoctorRecommendation {
	m.mu.Lock()
	defer m.mu.Unlock()

	locationPrefix := utils.FirstToken(location)
	doctors := make([]domain.DoctorRecommendation, 0, len(specialties)*m.perSpecialty)
	for _, specialty := range specialties {
		for i := 1; i <= m.perSpecialty; i++ {
			doctors = append(doctors, m.generateDoctor(specialty, i, locationPrefix))
		}
	}
	return doctors
}

func (m *Matcher) generateDoctor(specialty domain.Specialty, index int, locationPrefix string) domain.DoctorRecommendation {
	prefix := string(specialty)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	return domain.DoctorRecommendation{
		ID:        fmt.Sprintf("%s-%d-%d", prefix, index, m.rnd.Intn(1000)),
		Name:      "Dr. " + lastNames[m.rnd.Intn(len(lastNames))],
		Specialty: specialty,
		Address: fmt.Sprintf("%d %s St, %s, %d",
			m.rnd.Intn(1000)+100,
			streetNames[m.rnd.Intn(len(streetNames))],
			locationPrefix,
			m.rnd.Intn(90000)+10000,
		),
		DistanceText: fmt.Sprintf("%.1f miles", m.rnd.Float64()*5+0.5),
		Phone: fmt.Sprintf("(%d) %d-%d",
			m.rnd.Intn(900)+100,
			m.rnd.Intn(900)+100,
			m.rnd.Intn(9000)+1000,
		),
		Rating: m.rnd.Intn(2) + 4,
	}
}
