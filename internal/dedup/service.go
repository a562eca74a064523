package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pdy7080/kpop-ranker-sub000/internal/backend"
	"github.com/pdy7080/kpop-ranker-sub000/internal/config"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Backend is the admin surface of the chart API
type Backend interface {
	PotentialDuplicates(ctx context.Context) ([]models.DuplicateGroup, error)
	ReviewQueue(ctx context.Context) ([]models.AIReviewEntry, error)
	Mappings(ctx context.Context) ([]models.Mapping, error)
	ExecuteMerge(ctx context.Context, req backend.MergeRequest) (*models.MergeResult, error)
	ApproveSuggestion(ctx context.Context, id string) error
	RejectSuggestion(ctx context.Context, id string) error
}

// DecisionRecorder persists an audit record of each admin action
type DecisionRecorder interface {
	Save(ctx context.Context, d *models.Decision) error
}

var (
	// ErrActionInFlight is returned when an action for the same group is still running
	ErrActionInFlight = errors.New("an action for this group is already in progress")
	// ErrUnknownGroup is returned for a group ID not in the loaded candidate list
	ErrUnknownGroup = errors.New("unknown duplicate group")
)

// ValidationError is a request rejected locally, before any backend call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ServerError carries a failure reported by the backend, message verbatim
type ServerError struct {
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "server rejected the action"
	}
	return e.Message
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// MergeCommand is an admin decision for one group
type MergeCommand struct {
	GroupID     string             `json:"group_id"`
	SelectedIDs []string           `json:"selected_ids"`
	MasterID    string             `json:"master_id,omitempty"`
	Action      models.MergeAction `json:"action"`
}

// Selection is the admin's current choice for a group
type Selection struct {
	SelectedIDs []string `json:"selected_ids"`
	MasterID    string   `json:"master_id,omitempty"`
}

// within drops the members g no longer carries
func (s Selection) within(g *models.DuplicateGroup) Selection {
	out := Selection{SelectedIDs: make([]string, 0, len(s.SelectedIDs))}
	for _, id := range s.SelectedIDs {
		if g.HasMember(id) {
			out.SelectedIDs = append(out.SelectedIDs, id)
		}
	}
	if out.has(s.MasterID) {
		out.MasterID = s.MasterID
	}
	return out
}

func (s Selection) has(id string) bool {
	for _, sel := range s.SelectedIDs {
		if sel == id {
			return true
		}
	}
	return false
}

// Service holds the loaded candidate groups, the admin's selection board and
// the per-group in-flight guard.
type Service struct {
	backend  Backend
	recorder DecisionRecorder
	policy   config.MasterPolicy

	mu         sync.Mutex
	groups     []models.DuplicateGroup
	index      map[string]int
	selections map[string]Selection
	inFlight   map[string]struct{}
}

// NewService creates a dedup review service. recorder may be nil.
func NewService(b Backend, recorder DecisionRecorder, policy config.MasterPolicy) *Service {
	if policy == "" {
		policy = config.MasterFirst
	}
	return &Service{
		backend:    b,
		recorder:   recorder,
		policy:     policy,
		index:      make(map[string]int),
		selections: make(map[string]Selection),
		inFlight:   make(map[string]struct{}),
	}
}

// Load fetches candidate groups, classifies them and resets the selection
// board to the recommendations.
func (s *Service) Load(ctx context.Context) ([]models.DuplicateGroup, error) {
	groups, err := s.backend.PotentialDuplicates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate candidates: %w", err)
	}

	index := make(map[string]int, len(groups))
	for i := range groups {
		Annotate(&groups[i], s.policy)
		index[groups[i].GroupID] = i
	}

	s.mu.Lock()
	// Selections made on groups that are still pending survive a reload;
	// only groups seen for the first time are seeded from recommendations.
	selections := make(map[string]Selection, len(groups))
	for i := range groups {
		g := &groups[i]
		if prev, ok := s.selections[g.GroupID]; ok {
			selections[g.GroupID] = prev.within(g)
			continue
		}
		if rec := g.Recommendation; rec != nil {
			selections[g.GroupID] = Selection{
				SelectedIDs: append([]string(nil), rec.SelectedIDs...),
				MasterID:    rec.MasterID,
			}
		}
	}
	s.groups = groups
	s.index = index
	s.selections = selections
	s.mu.Unlock()

	slog.Info("Loaded duplicate candidates", "groups", len(groups))
	return s.Groups(), nil
}

// Groups returns a copy of the loaded groups
func (s *Service) Groups() []models.DuplicateGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DuplicateGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// Group returns one loaded group
func (s *Service) Group(id string) (models.DuplicateGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return models.DuplicateGroup{}, false
	}
	return s.groups[i], true
}

// ReviewQueue fetches AI-suggested merges awaiting triage
func (s *Service) ReviewQueue(ctx context.Context) ([]models.AIReviewEntry, error) {
	entries, err := s.backend.ReviewQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AI review queue: %w", err)
	}
	return entries, nil
}

// Mappings fetches the active identity mappings
func (s *Service) Mappings(ctx context.Context) ([]models.Mapping, error) {
	mappings, err := s.backend.Mappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	return mappings, nil
}

// Selection returns the admin's current selection for a group
func (s *Service) Selection(groupID string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[groupID]; !ok {
		return Selection{}, ErrUnknownGroup
	}
	return s.selectionLocked(groupID), nil
}

// Toggle adds or removes a member from the group's selection. Deselecting
// the master also clears it.
func (s *Service) Toggle(groupID, memberID string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMemberLocked(groupID, memberID); err != nil {
		return Selection{}, err
	}

	sel := s.selectionLocked(groupID)
	if sel.has(memberID) {
		kept := sel.SelectedIDs[:0]
		for _, id := range sel.SelectedIDs {
			if id != memberID {
				kept = append(kept, id)
			}
		}
		sel.SelectedIDs = kept
		if sel.MasterID == memberID {
			sel.MasterID = ""
		}
	} else {
		sel.SelectedIDs = append(sel.SelectedIDs, memberID)
	}

	s.selections[groupID] = sel
	return sel, nil
}

// SetMaster designates the surviving record, selecting it if needed
func (s *Service) SetMaster(groupID, memberID string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMemberLocked(groupID, memberID); err != nil {
		return Selection{}, err
	}

	sel := s.selectionLocked(groupID)
	if !sel.has(memberID) {
		sel.SelectedIDs = append(sel.SelectedIDs, memberID)
	}
	sel.MasterID = memberID
	s.selections[groupID] = sel
	return sel, nil
}

// SetSelection replaces the group's selection wholesale
func (s *Service) SetSelection(groupID string, sel Selection) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[groupID]; !ok {
		return Selection{}, ErrUnknownGroup
	}
	for _, id := range sel.SelectedIDs {
		if err := s.checkMemberLocked(groupID, id); err != nil {
			return Selection{}, err
		}
	}
	if sel.MasterID != "" && !sel.has(sel.MasterID) {
		return Selection{}, &ValidationError{Field: "master_id", Message: "the master record must be one of the selected records"}
	}

	sel.SelectedIDs = dedupeIDs(sel.SelectedIDs)
	s.selections[groupID] = sel
	return sel, nil
}

// ExecuteMerge validates and commits an admin decision. Validation failures
// never reach the backend. On success the group's selection is cleared and
// the candidate list reloaded.
func (s *Service) ExecuteMerge(ctx context.Context, cmd MergeCommand) (*models.MergeResult, error) {
	cmd.SelectedIDs = dedupeIDs(cmd.SelectedIDs)
	if err := s.validate(cmd); err != nil {
		return nil, err
	}

	release, err := s.acquire(cmd.GroupID)
	if err != nil {
		return nil, err
	}
	defer release()

	req := backend.MergeRequest{
		GroupID:     cmd.GroupID,
		SelectedIDs: cmd.SelectedIDs,
		Action:      cmd.Action,
	}
	if cmd.Action == models.ActionMerge {
		master := cmd.MasterID
		req.MasterID = &master
	}

	decision := s.newGroupDecision(cmd)
	result, err := s.backend.ExecuteMerge(ctx, req)
	if err != nil {
		err = serverError(err)
		decision.Message = err.Error()
		s.record(ctx, decision)
		return nil, err
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		decision.Message = msg
		s.record(ctx, decision)
		return result, &ServerError{Message: msg}
	}

	decision.Success = true
	decision.Message = result.Message
	s.record(ctx, decision)

	// An empty entry keeps the reload from re-seeding the recommendation
	s.mu.Lock()
	s.selections[cmd.GroupID] = Selection{SelectedIDs: []string{}}
	s.mu.Unlock()

	if _, err := s.Load(ctx); err != nil {
		slog.Warn("Reload after merge failed", "group_id", cmd.GroupID, "error", err)
	}

	slog.Info("Duplicate group resolved", "group_id", cmd.GroupID, "action", cmd.Action, "selected", len(cmd.SelectedIDs))
	return result, nil
}

// Approve accepts an AI-suggested merge and returns the refreshed queue
func (s *Service) Approve(ctx context.Context, id string) ([]models.AIReviewEntry, error) {
	return s.triage(ctx, id, models.DecisionAIApprove, s.backend.ApproveSuggestion)
}

// Reject dismisses an AI-suggested merge and returns the refreshed queue
func (s *Service) Reject(ctx context.Context, id string) ([]models.AIReviewEntry, error) {
	return s.triage(ctx, id, models.DecisionAIReject, s.backend.RejectSuggestion)
}

func (s *Service) triage(ctx context.Context, id string, kind models.DecisionKind, call func(context.Context, string) error) ([]models.AIReviewEntry, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "a review queue entry id is required"}
	}

	release, err := s.acquire("ai:" + id)
	if err != nil {
		return nil, err
	}
	defer release()

	decision := models.NewDecision(kind)
	decision.EntryID = id

	if err := call(ctx, id); err != nil {
		err = serverError(err)
		decision.Message = err.Error()
		s.record(ctx, decision)
		return nil, err
	}
	decision.Success = true
	s.record(ctx, decision)

	return s.ReviewQueue(ctx)
}

func (s *Service) validate(cmd MergeCommand) error {
	if cmd.GroupID == "" {
		return &ValidationError{Field: "group_id", Message: "a group id is required"}
	}
	if !cmd.Action.Valid() {
		return &ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", cmd.Action)}
	}

	s.mu.Lock()
	i, loaded := s.index[cmd.GroupID]
	var group models.DuplicateGroup
	if loaded {
		group = s.groups[i]
	}
	s.mu.Unlock()

	if loaded {
		for _, id := range cmd.SelectedIDs {
			if !group.HasMember(id) {
				return &ValidationError{Field: "selected_ids", Message: fmt.Sprintf("record %s is not part of this group", id)}
			}
		}
	}

	if cmd.Action != models.ActionMerge {
		return nil
	}
	if len(cmd.SelectedIDs) < 2 {
		return &ValidationError{Field: "selected_ids", Message: "select at least two records to merge"}
	}
	if cmd.MasterID == "" {
		return &ValidationError{Field: "master_id", Message: "choose the master record to keep"}
	}
	if !(Selection{SelectedIDs: cmd.SelectedIDs}).has(cmd.MasterID) {
		return &ValidationError{Field: "master_id", Message: "the master record must be one of the selected records"}
	}
	return nil
}

// acquire marks key in flight, failing if it already is
func (s *Service) acquire(key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return nil, ErrActionInFlight
	}
	s.inFlight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}, nil
}

// InFlight reports whether an action for groupID is running
func (s *Service) InFlight(groupID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[groupID]
	return busy
}

func (s *Service) newGroupDecision(cmd MergeCommand) *models.Decision {
	d := models.NewDecision(models.DecisionKindFor(cmd.Action))
	d.GroupID = cmd.GroupID
	d.SelectedIDs = cmd.SelectedIDs
	if cmd.Action == models.ActionMerge {
		d.MasterID = cmd.MasterID
	}
	if g, ok := s.Group(cmd.GroupID); ok {
		d.UnifiedArtist = g.UnifiedArtist
		d.UnifiedTrack = g.UnifiedTrack
		d.Classification = g.Classification
	}
	return d
}

func (s *Service) record(ctx context.Context, d *models.Decision) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Save(ctx, d); err != nil {
		slog.Warn("Failed to record admin decision", "kind", d.Kind, "group_id", d.GroupID, "error", err)
	}
}

func (s *Service) selectionLocked(groupID string) Selection {
	sel := s.selections[groupID]
	return Selection{
		SelectedIDs: append([]string{}, sel.SelectedIDs...),
		MasterID:    sel.MasterID,
	}
}

func (s *Service) checkMemberLocked(groupID, memberID string) error {
	i, ok := s.index[groupID]
	if !ok {
		return ErrUnknownGroup
	}
	if !s.groups[i].HasMember(memberID) {
		return &ValidationError{Field: "member_id", Message: fmt.Sprintf("record %s is not part of this group", memberID)}
	}
	return nil
}

// serverError surfaces a backend-reported message verbatim; other failures
// pass through wrapped.
func serverError(err error) error {
	if msg, ok := backend.ServerMessage(err); ok {
		return &ServerError{Message: msg, Err: err}
	}
	return fmt.Errorf("backend request failed: %w", err)
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
