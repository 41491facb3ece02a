// Package console holds the page controllers of the helpdesk console:
// per-view state, the tickets view and the workflows view. Rendering is
// someone else's problem; these types only decide what a view shows and
// which actions are legal.
package console

import "sync"

// OpenIntent is a one-shot deep-link: open this entity's detail (and
// optionally a tab) after the next successful load. It is consumed
// exactly once and then cleared.
type OpenIntent struct {
	EntityID string
	Tab      string
}

// ViewState is the process-scoped mutable state of one view. It owns no
// business rules; it guards against overlapping loads and is the single
// writer for the current selection. All view fields in this package are
// guarded by its mutex.
type ViewState struct {
	mu sync.Mutex

	loading             bool
	selectedID          string
	selectedExecutionID string
	activeTab           string
	intent              *OpenIntent
}

// beginLoad marks the view loading. It returns false when a load is
// already in flight, in which case the caller must do nothing: duplicate
// loads are suppressed, not queued.
func (s *ViewState) beginLoad() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	s.loading = true
	return true
}

func (s *ViewState) endLoad() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// Loading reports whether a load is in flight.
func (s *ViewState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Selected returns the currently selected entity id, empty when none.
func (s *ViewState) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// SelectedExecution returns the currently selected execution id.
func (s *ViewState) SelectedExecution() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedExecutionID
}

// ActiveTab returns the detail tab a consumed intent asked for, empty
// when the last intent carried none.
func (s *ViewState) ActiveTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SetIntent arms the one-shot deep-link intent.
func (s *ViewState) SetIntent(intent OpenIntent) {
	s.mu.Lock()
	s.intent = &intent
	s.mu.Unlock()
}

func (s *ViewState) selectEntity(id string) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
}

func (s *ViewState) selectExecution(id string) {
	s.mu.Lock()
	s.selectedExecutionID = id
	s.mu.Unlock()
}

func (s *ViewState) clearSelection(id string) {
	s.mu.Lock()
	if s.selectedID == id {
		s.selectedID = ""
	}
	s.mu.Unlock()
}
