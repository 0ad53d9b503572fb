// Package matching implements duplicate client scoring and grouping
package matching

import (
	"math"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Field weights. A field only counts towards the maximum when both clients have it.
const (
	WeightTaxID        = 40
	WeightEmail        = 35
	WeightPhoneExact   = 25
	WeightPhonePartial = 15
	WeightNameStrong   = 20
	WeightNameWeak     = 10
	WeightBirthDate    = 10

	// phoneSuffixLength is how many trailing digits a partial phone match compares
	phoneSuffixLength = 8

	nameStrongSimilarity = 0.9
	nameWeakSimilarity   = 0.7
)

// Match reasons reported on a SimilarityDetail
const (
	ReasonTaxID           = "tax id identical"
	ReasonEmail           = "email identical"
	ReasonPhone           = "phone identical"
	ReasonPhonePartial    = "phone matches on last 8 digits"
	ReasonNameVerySimilar = "name very similar"
	ReasonNameSimilar     = "name similar"
	ReasonBirthDate       = "birth date identical"
)

// SimilarityScorer computes weighted pairwise similarity between clients
type SimilarityScorer struct {
	scorer *Scorer
	phone  normalizers.Normalizer
}

// NewSimilarityScorer creates a scorer using the default phone normalization
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{
		scorer: NewScorer(),
		phone:  normalizers.NormalizePhone,
	}
}

// WithPhoneNormalizer overrides how phone numbers are canonicalized
func (s *SimilarityScorer) WithPhoneNormalizer(fn normalizers.Normalizer) *SimilarityScorer {
	s.phone = fn
	return s
}

// normalizedClient holds the comparable forms of a client's fields
type normalizedClient struct {
	name      string
	email     string
	phone     string
	taxID     string
	birthDate string
}

func (s *SimilarityScorer) normalize(c models.Client) normalizedClient {
	n := normalizedClient{
		name:  normalizers.Apply(c.Name, normalizers.Name),
		email: normalizers.Apply(c.Email, normalizers.Email),
		phone: s.phone(c.Phone),
		taxID: normalizers.Apply(c.TaxID, normalizers.TaxID),
	}
	if c.BirthDate != nil && !c.BirthDate.IsZero() {
		n.birthDate = c.BirthDate.Format(models.BirthDateLayout)
	}
	return n
}

// Score compares two clients. The numeric score does not depend on argument order.
func (s *SimilarityScorer) Score(a, b models.Client) models.SimilarityDetail {
	return s.score(a.ID, b.ID, s.normalize(a), s.normalize(b))
}

func (s *SimilarityScorer) score(aID, bID string, a, b normalizedClient) models.SimilarityDetail {
	earned, maxPoints := 0, 0
	reasons := make([]string, 0, 5)

	if a.taxID != "" && b.taxID != "" {
		maxPoints += WeightTaxID
		if a.taxID == b.taxID {
			earned += WeightTaxID
			reasons = append(reasons, ReasonTaxID)
		}
	}

	if a.email != "" && b.email != "" {
		maxPoints += WeightEmail
		if a.email == b.email {
			earned += WeightEmail
			reasons = append(reasons, ReasonEmail)
		}
	}

	if a.phone != "" && b.phone != "" {
		maxPoints += WeightPhoneExact
		switch {
		case a.phone == b.phone:
			earned += WeightPhoneExact
			reasons = append(reasons, ReasonPhone)
		case len(a.phone) >= phoneSuffixLength && len(b.phone) >= phoneSuffixLength &&
			LastDigits(a.phone, phoneSuffixLength) == LastDigits(b.phone, phoneSuffixLength):
			earned += WeightPhonePartial
			reasons = append(reasons, ReasonPhonePartial)
		}
	}

	if a.name != "" && b.name != "" {
		maxPoints += WeightNameStrong
		similarity := s.scorer.Levenshtein(a.name, b.name)
		switch {
		case similarity >= nameStrongSimilarity:
			earned += WeightNameStrong
			reasons = append(reasons, ReasonNameVerySimilar)
		case similarity >= nameWeakSimilarity:
			earned += WeightNameWeak
			reasons = append(reasons, ReasonNameSimilar)
		}
	}

	if a.birthDate != "" && b.birthDate != "" {
		maxPoints += WeightBirthDate
		if a.birthDate == b.birthDate {
			earned += WeightBirthDate
			reasons = append(reasons, ReasonBirthDate)
		}
	}

	score := 0.0
	if maxPoints > 0 {
		score = math.Round(100 * float64(earned) / float64(maxPoints))
	}

	return models.SimilarityDetail{
		ClientAID:  aID,
		ClientBID:  bID,
		Score:      score,
		Earned:     earned,
		Max:        maxPoints,
		Reasons:    reasons,
		Confidence: Tier(score, earned),
	}
}

// Tier maps a normalized score and the raw earned points to a confidence tier
func Tier(score float64, earned int) models.ConfidenceTier {
	switch {
	case score >= 70 || earned >= 60:
		return models.ConfidenceHigh
	case score >= 40 || earned >= 30:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// MinimumScore is the score a pair must reach to be grouped at the given tier
func MinimumScore(tier models.ConfidenceTier) float64 {
	switch tier {
	case models.ConfidenceHigh:
		return 60
	case models.ConfidenceMedium:
		return 40
	default:
		return 30
	}
}

// IsDuplicate applies the tier-dependent inclusion threshold to a scored pair
func IsDuplicate(detail models.SimilarityDetail) bool {
	return detail.Score >= MinimumScore(detail.Confidence)
}
