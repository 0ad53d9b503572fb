// Package batch walks every duplicate group with an operator, one pairwise merge at a time
package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Phase is the tag of the batch review state machine
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseReviewing Phase = "reviewing"
	PhaseMerging   Phase = "merging"
	PhaseErrored   Phase = "errored"
	PhaseFinished  Phase = "finished"
)

// RelationshipsUnavailableNotice is shown when relationship counts could not be loaded
const RelationshipsUnavailableNotice = "could not load linked policies, appointments and claims; counts are shown as zero"

var (
	// ErrInvalidTransition is returned when an event is not accepted in the current phase
	ErrInvalidTransition = errors.New("invalid batch transition")
	// ErrUnknownField is returned when toggling a field that is not offered for the pair
	ErrUnknownField = errors.New("field is not available for this pair")
	// ErrNotGroupMember is returned when selecting a secondary outside the current group
	ErrNotGroupMember = errors.New("client is not a member of the current group")
)

// Focus is the pair under review together with everything shown to the operator
type Focus struct {
	GroupID                  string                                `json:"group_id"`
	Primary                  models.Client                         `json:"primary"`
	Secondary                models.Client                         `json:"secondary"`
	Fields                   []models.SmartMergeField              `json:"fields"`
	Relationships            map[string]models.ClientRelationships `json:"relationships"`
	RelationshipsUnavailable bool                                  `json:"relationships_unavailable"`
}

// State is the batch review state. Groups keep their start order for the whole batch;
// resolved groups keep their last remaining member.
type State struct {
	Phase     Phase                   `json:"phase"`
	Index     int                     `json:"index"`
	Groups    []models.DuplicateGroup `json:"groups"`
	Skipped   map[string]bool         `json:"skipped"`
	Processed int                     `json:"processed"`
	LastError string                  `json:"last_error,omitempty"`
	Notice    string                  `json:"notice,omitempty"`
	Focus     *Focus                  `json:"focus,omitempty"`
	StartedAt time.Time               `json:"started_at"`
}

// Summary reports batch totals
type Summary struct {
	Phase            Phase `json:"phase"`
	Merged           int   `json:"merged"`
	SkippedGroups    int   `json:"skipped_groups"`
	TotalGroups      int   `json:"total_groups"`
	CurrentGroup     int   `json:"current_group"`
	RemainingMembers int   `json:"remaining_members"`
}

// Active reports whether a batch is in progress
func (s State) Active() bool {
	return s.Phase == PhaseReviewing || s.Phase == PhaseMerging || s.Phase == PhaseErrored
}

// NeedsRelationships reports whether the current group is waiting for relationship counts
// before a pair can be focused
func (s State) NeedsRelationships() bool {
	return s.Phase == PhaseReviewing && s.Focus == nil
}

// CurrentGroup returns the group under review
func (s State) CurrentGroup() (models.DuplicateGroup, bool) {
	if !s.Active() || s.Index < 0 || s.Index >= len(s.Groups) {
		return models.DuplicateGroup{}, false
	}
	return s.Groups[s.Index], true
}

// RemainingMembers counts clients still present in any group of the batch
func (s State) RemainingMembers() int {
	total := 0
	for _, g := range s.Groups {
		total += len(g.Clients)
	}
	return total
}

// Summary returns the batch totals
func (s State) Summary() Summary {
	return Summary{
		Phase:            s.Phase,
		Merged:           s.Processed,
		SkippedGroups:    len(s.Skipped),
		TotalGroups:      len(s.Groups),
		CurrentGroup:     s.Index,
		RemainingMembers: s.RemainingMembers(),
	}
}

// MergeRequest builds the executor input for the focused pair
func (s State) MergeRequest(tenantID string) (models.MergeRequest, error) {
	if s.Focus == nil {
		return models.MergeRequest{}, fmt.Errorf("%w: no pair in focus", ErrInvalidTransition)
	}
	return models.MergeRequest{
		TenantID:     tenantID,
		PrimaryID:    s.Focus.Primary.ID,
		SecondaryIDs: []string{s.Focus.Secondary.ID},
		Fields:       merging.NewFieldMerger().InheritedFields(s.Focus.Fields),
	}, nil
}

func (s State) clone() State {
	next := s
	next.Groups = append([]models.DuplicateGroup(nil), s.Groups...)
	next.Skipped = make(map[string]bool, len(s.Skipped))
	for id := range s.Skipped {
		next.Skipped[id] = true
	}
	if s.Focus != nil {
		focus := *s.Focus
		focus.Fields = append([]models.SmartMergeField(nil), s.Focus.Fields...)
		next.Focus = &focus
	}
	return next
}

// Event is an input to the batch state machine
type Event interface {
	eventName() string
}

// Start snapshots the groups and opens the first one
type Start struct {
	Groups []models.DuplicateGroup
	At     time.Time
}

// RelationshipsLoaded delivers relationship counts for the current group. Failed marks a
// lookup that errored; the counts are then treated as zero.
type RelationshipsLoaded struct {
	Relationships []models.ClientRelationships
	Failed        bool
	Now           time.Time
}

// Skip leaves the current group untouched and moves on
type Skip struct{}

// ToggleField flips whether a field will be inherited
type ToggleField struct {
	Field models.FieldKey
}

// Swap exchanges primary and secondary
type Swap struct{}

// SelectSecondary focuses another member of the group as the record to absorb
type SelectSecondary struct {
	ClientID string
}

// Confirm hands the focused pair to the merge executor
type Confirm struct{}

// MergeSucceeded reports a committed merge
type MergeSucceeded struct {
	Outcome *models.MergeOutcome
}

// MergeFailed reports a merge the executor rolled back
type MergeFailed struct {
	Message string
}

// Retry re-submits the pair after a failed merge
type Retry struct{}

// Exit abandons the rest of the walk
type Exit struct{}

func (Start) eventName() string               { return "start" }
func (RelationshipsLoaded) eventName() string { return "relationships_loaded" }
func (Skip) eventName() string                { return "skip" }
func (ToggleField) eventName() string         { return "toggle_field" }
func (Swap) eventName() string                { return "swap" }
func (SelectSecondary) eventName() string     { return "select_secondary" }
func (Confirm) eventName() string             { return "confirm" }
func (MergeSucceeded) eventName() string      { return "merge_succeeded" }
func (MergeFailed) eventName() string         { return "merge_failed" }
func (Retry) eventName() string               { return "retry" }
func (Exit) eventName() string                { return "exit" }

// Reduce applies an event to a state. It never mutates its input; on error the input
// state is returned unchanged.
func Reduce(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case Exit:
		return State{Phase: PhaseIdle}, nil

	case Start:
		if s.Active() {
			return s, invalid(s, e)
		}
		next := State{
			Phase:     PhaseReviewing,
			Groups:    make([]models.DuplicateGroup, len(ev.Groups)),
			Skipped:   make(map[string]bool),
			StartedAt: ev.At,
		}
		for i, g := range ev.Groups {
			next.Groups[i] = g.Clone()
		}
		return next.openGroup(0), nil

	case RelationshipsLoaded:
		if !s.NeedsRelationships() {
			return s, invalid(s, e)
		}
		return s.clone().focus(ev), nil

	case Skip:
		if s.Phase != PhaseReviewing || s.Focus == nil {
			return s, invalid(s, e)
		}
		next := s.clone()
		next.Skipped[s.Groups[s.Index].ID] = true
		return next.openGroup(s.Index + 1), nil

	case ToggleField:
		if s.Phase != PhaseReviewing || s.Focus == nil {
			return s, invalid(s, e)
		}
		next := s.clone()
		fields, ok := merging.NewFieldMerger().ToggleField(next.Focus.Fields, ev.Field)
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownField, ev.Field)
		}
		next.Focus.Fields = fields
		return next, nil

	case Swap:
		if s.Phase != PhaseReviewing || s.Focus == nil {
			return s, invalid(s, e)
		}
		next := s.clone()
		next.Focus.Primary, next.Focus.Secondary = s.Focus.Secondary, s.Focus.Primary
		next.Focus.Fields = merging.NewFieldMerger().ComputeFields(next.Focus.Primary, next.Focus.Secondary)
		return next, nil

	case SelectSecondary:
		if s.Phase != PhaseReviewing || s.Focus == nil {
			return s, invalid(s, e)
		}
		if ev.ClientID == s.Focus.Primary.ID {
			return s, fmt.Errorf("%w: %s is the primary", ErrNotGroupMember, ev.ClientID)
		}
		member, ok := findClient(s.Groups[s.Index].Clients, ev.ClientID)
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrNotGroupMember, ev.ClientID)
		}
		next := s.clone()
		next.Focus.Secondary = member
		next.Focus.Fields = merging.NewFieldMerger().ComputeFields(next.Focus.Primary, member)
		return next, nil

	case Confirm:
		if s.Phase != PhaseReviewing || s.Focus == nil {
			return s, invalid(s, e)
		}
		next := s.clone()
		next.Phase = PhaseMerging
		next.LastError = ""
		return next, nil

	case Retry:
		if s.Phase != PhaseErrored {
			return s, invalid(s, e)
		}
		next := s.clone()
		next.Phase = PhaseMerging
		next.LastError = ""
		return next, nil

	case MergeFailed:
		if s.Phase != PhaseMerging {
			return s, invalid(s, e)
		}
		next := s.clone()
		next.Phase = PhaseErrored
		next.LastError = ev.Message
		return next, nil

	case MergeSucceeded:
		if s.Phase != PhaseMerging {
			return s, invalid(s, e)
		}
		return s.clone().absorb(), nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, e)
	}
}

// openGroup moves to the first group at or after index that still has a pair to review
func (s State) openGroup(index int) State {
	s.Focus = nil
	s.Notice = ""
	for index < len(s.Groups) && len(s.Groups[index].Clients) < 2 {
		index++
	}
	s.Index = index
	if index >= len(s.Groups) {
		s.Phase = PhaseFinished
		return s
	}
	s.Phase = PhaseReviewing
	return s
}

// focus selects the pair for the current group from the loaded relationship counts
func (s State) focus(ev RelationshipsLoaded) State {
	group := s.Groups[s.Index]

	relationships := make(map[string]models.ClientRelationships, len(group.Clients))
	for _, c := range group.Clients {
		relationships[c.ID] = models.ClientRelationships{ClientID: c.ID}
	}
	if !ev.Failed {
		for _, r := range ev.Relationships {
			if _, ok := relationships[r.ClientID]; ok {
				relationships[r.ClientID] = r
			}
		}
	}

	primary, secondary := merging.SelectPrimary(group.Clients, relationships, ev.Now)
	s.Focus = &Focus{
		GroupID:                  group.ID,
		Primary:                  primary,
		Secondary:                secondary,
		Fields:                   merging.NewFieldMerger().ComputeFields(primary, secondary),
		Relationships:            relationships,
		RelationshipsUnavailable: ev.Failed,
	}
	s.Notice = ""
	if ev.Failed {
		s.Notice = RelationshipsUnavailableNotice
	}
	return s
}

// absorb records a committed merge of the focused pair
func (s State) absorb() State {
	merger := merging.NewFieldMerger()
	focus := s.Focus

	group := s.Groups[s.Index].Without(focus.Secondary.ID)
	merged := merger.ApplyFields(focus.Primary, merger.InheritedFields(focus.Fields))
	for i := range group.Clients {
		if group.Clients[i].ID == merged.ID {
			group.Clients[i] = merged
		}
	}
	s.Groups[s.Index] = group
	s.Processed++
	s.LastError = ""

	if len(group.Clients) < 2 {
		return s.openGroup(s.Index + 1)
	}

	s.Phase = PhaseReviewing
	s.Focus = nil
	return s
}

func findClient(clients []models.Client, id string) (models.Client, bool) {
	for _, c := range clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e.eventName(), s.Phase)
}
