// Package merging picks the surviving client of a duplicate group and computes which
// fields it can inherit from the client being absorbed
package merging

import (
	"sort"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Business value weights used to rank the members of a group
const (
	pointsPerPolicy      = 100
	pointsPerAppointment = 10
	pointsPerClaim       = 20
	pointsPerYearOfAge   = 20
	maxAgeYears          = 5.0
	bonusTaxID           = 50
	bonusEmail           = 30
	bonusPhone           = 20
	bonusCityState       = 15

	hoursPerYear = 24 * 365.25
)

// RankedClient is a group member with its business value score
type RankedClient struct {
	Client        models.Client              `json:"client"`
	Relationships models.ClientRelationships `json:"relationships"`
	Value         float64                    `json:"value"`
}

// BusinessValue scores how costly a client would be to discard: linked business data,
// account age (capped at five years) and contact completeness
func BusinessValue(c models.Client, rel models.ClientRelationships, now time.Time) float64 {
	value := float64(pointsPerPolicy*rel.Policies + pointsPerAppointment*rel.Appointments + pointsPerClaim*rel.Claims)

	if !c.CreatedAt.IsZero() && now.After(c.CreatedAt) {
		years := now.Sub(c.CreatedAt).Hours() / hoursPerYear
		value += min(years, maxAgeYears) * pointsPerYearOfAge
	}

	if !isBlank(c.TaxID) {
		value += bonusTaxID
	}
	if !isBlank(c.Email) {
		value += bonusEmail
	}
	if !isBlank(c.Phone) {
		value += bonusPhone
	}
	if !isBlank(c.City) && !isBlank(c.State) {
		value += bonusCityState
	}

	return value
}

// RankClients orders clients by business value, highest first. Ties keep input order.
// Clients missing from relationships count as having no linked objects.
func RankClients(clients []models.Client, relationships map[string]models.ClientRelationships, now time.Time) []RankedClient {
	ranked := make([]RankedClient, len(clients))
	for i, c := range clients {
		rel, ok := relationships[c.ID]
		if !ok {
			rel = models.ClientRelationships{ClientID: c.ID}
		}
		ranked[i] = RankedClient{
			Client:        c,
			Relationships: rel,
			Value:         BusinessValue(c, rel, now),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	return ranked
}

// SelectPrimary returns the client that should survive and the first one to absorb.
// A single-member list pairs the client with itself; callers must guard against it.
func SelectPrimary(clients []models.Client, relationships map[string]models.ClientRelationships, now time.Time) (primary, secondary models.Client) {
	ranked := RankClients(clients, relationships, now)
	if len(ranked) == 0 {
		return models.Client{}, models.Client{}
	}
	if len(ranked) == 1 {
		return ranked[0].Client, ranked[0].Client
	}
	return ranked[0].Client, ranked[1].Client
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
