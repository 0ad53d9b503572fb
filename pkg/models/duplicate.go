package models

// ConfidenceTier is a coarse bucket summarizing a pairwise similarity score
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Rank orders tiers so that high > medium > low
func (t ConfidenceTier) Rank() int {
	switch t {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// SimilarityDetail is the result of scoring one pair of clients
type SimilarityDetail struct {
	ClientAID  string         `json:"client_a_id"`
	ClientBID  string         `json:"client_b_id"`
	Score      float64        `json:"score"`
	Earned     int            `json:"earned"`
	Max        int            `json:"max"`
	Reasons    []string       `json:"reasons"`
	Confidence ConfidenceTier `json:"confidence"`
}

// Involves reports whether the detail concerns the given client
func (d SimilarityDetail) Involves(clientID string) bool {
	return d.ClientAID == clientID || d.ClientBID == clientID
}

// DuplicateGroup is a cluster of clients believed to be the same person
type DuplicateGroup struct {
	ID                string             `json:"id"`
	Clients           []Client           `json:"clients"`
	Confidence        ConfidenceTier     `json:"confidence"`
	Score             float64            `json:"score"`
	SimilarityDetails []SimilarityDetail `json:"similarity_details"`
}

// Clone returns a deep enough copy that member and detail slices can be changed safely
func (g DuplicateGroup) Clone() DuplicateGroup {
	out := g
	out.Clients = append([]Client(nil), g.Clients...)
	out.SimilarityDetails = append([]SimilarityDetail(nil), g.SimilarityDetails...)
	return out
}

// Without returns a copy of the group with the client and its pairwise details removed
func (g DuplicateGroup) Without(clientID string) DuplicateGroup {
	out := g
	out.Clients = make([]Client, 0, len(g.Clients))
	for _, c := range g.Clients {
		if c.ID != clientID {
			out.Clients = append(out.Clients, c)
		}
	}
	out.SimilarityDetails = make([]SimilarityDetail, 0, len(g.SimilarityDetails))
	for _, d := range g.SimilarityDetails {
		if !d.Involves(clientID) {
			out.SimilarityDetails = append(out.SimilarityDetails, d)
		}
	}
	return out
}
