package relationship

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestBuildCountQuery(t *testing.T) {
	query, args := buildCountQuery(TableClaims, "broker-1", []string{"a", "b"})

	assert.Equal(t, "SELECT client_id, COUNT(*) AS n FROM claims WHERE tenant_id = $1 AND client_id IN ($2, $3) GROUP BY client_id", query)
	assert.Equal(t, []any{"broker-1", "a", "b"}, args)
}

func TestAssemble_ZeroFillsAndKeepsOrder(t *testing.T) {
	counts := map[string]map[string]int{
		TablePolicies:     {"b": 2},
		TableAppointments: {"b": 1, "c": 4},
		TableClaims:       {},
	}

	result := assemble([]string{"c", "a", "b"}, counts)

	assert.Equal(t, []models.ClientRelationships{
		{ClientID: "c", Appointments: 4},
		{ClientID: "a"},
		{ClientID: "b", Policies: 2, Appointments: 1},
	}, result)
}
