// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package wizard owns the multi-step filing form state: the current step,
// the form fields, the dependents list, and the debounced autosave loop
// against local storage.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/storage"
)

// TotalSteps is the number of wizard steps. Step 1 is personal info,
// 2 income, 3 deductions, 4 dependents, 5 review.
const TotalSteps = 5

// DefaultAutosaveDelay is the trailing-debounce window for snapshot writes.
const DefaultAutosaveDelay = time.Second

// saveTimeout bounds a single background snapshot write.
const saveTimeout = 5 * time.Second

// LoadState tracks initial data loading.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// SnapshotStore is the persistence port the wizard drives.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, userID string, snap storage.Snapshot) error
	LoadSnapshot(ctx context.Context, userID string) (*storage.Snapshot, error)
	ClearSnapshot(ctx context.Context, userID string) error
}

// Session is one user's wizard. All state is guarded by a single mutex;
// every mutation schedules a debounced autosave once the initial load has
// finished. Only the last state within a quiet window is persisted.
//
// Thread Safety: Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	log     *slog.Logger
	store   SnapshotStore
	metrics *filing.Metrics
	userID  string

	step          int
	form          filing.TaxFormData
	dependents    []filing.Dependent
	numDependents int

	loadState LoadState
	autosave  bool
	saveDelay time.Duration
	saveTimer *time.Timer
	// saveGen invalidates debounce timers that already fired but have not
	// written yet; Reset bumps it so a stale write cannot re-create the
	// snapshot it just cleared.
	saveGen uint64
}

// Option configures a Session.
type Option func(*Session)

// WithAutosaveDelay overrides the debounce window. Tests use short windows.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Session) { s.saveDelay = d }
}

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *filing.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// NewSession creates a wizard session for a user. Call Load before use;
// until then the session reports NotLoaded and the shell should render a
// loading placeholder.
func NewSession(store SnapshotStore, userID string, opts ...Option) *Session {
	s := &Session{
		log:       slog.Default(),
		store:     store,
		userID:    userID,
		step:      1,
		form:      filing.NewTaxFormData(),
		saveDelay: DefaultAutosaveDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load performs the one-time initial fetch from storage. It transitions to
// Loaded whether or not saved data existed; absence of data is not an
// error. Without an authenticated user the load is skipped entirely and
// autosave stays disabled for the session. Subsequent calls are no-ops.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loadState != NotLoaded {
		s.mu.Unlock()
		return nil
	}
	if s.userID == "" {
		s.loadState = Loaded
		s.autosave = false
		s.mu.Unlock()
		s.log.Info("no authenticated user, wizard starts with defaults and autosave disabled")
		return nil
	}
	s.loadState = Loading
	userID := s.userID
	s.mu.Unlock()

	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		// Store treats read failures as absent; an error here is a
		// context cancellation and the load can be retried.
		s.mu.Lock()
		s.loadState = NotLoaded
		s.mu.Unlock()
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap != nil {
		s.form = mergeForm(snap.FormData)
		s.dependents = snap.Dependents
		s.numDependents = snap.NumberOfDependents
		if snap.CurrentStep >= 1 && snap.CurrentStep <= TotalSteps {
			s.step = snap.CurrentStep
		}
		s.log.Info("restored wizard snapshot",
			"step", s.step, "last_saved", snap.LastSaved)
	}
	s.loadState = Loaded
	s.autosave = true
	return nil
}

// mergeForm overlays a persisted form onto fresh defaults so slices added
// in newer schema versions never come back nil.
func mergeForm(saved filing.TaxFormData) filing.TaxFormData {
	merged := saved
	for _, c := range filing.FixedCategories {
		slot, _ := merged.DocumentSlot(c)
		if *slot == nil {
			*slot = []filing.UploadedDocument{}
		}
	}
	if merged.AdditionalIncomeSources == nil {
		merged.AdditionalIncomeSources = []filing.AdditionalIncomeSource{}
	}
	return merged
}

// State returns the load state.
func (s *Session) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadState
}

// UserID returns the owning user id ("" when signed out).
func (s *Session) UserID() string {
	return s.userID
}

// Step returns the current 1-based step.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// GoToStep jumps to step n. Out-of-range targets are silently ignored.
func (s *Session) GoToStep(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > TotalSteps {
		return
	}
	s.step = n
	s.scheduleSaveLocked()
}

// NextStep advances one step. At the last step it does not wrap: it
// reports true, meaning the shell should exit the wizard.
func (s *Session) NextStep() (exited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step >= TotalSteps {
		return true
	}
	s.step++
	s.scheduleSaveLocked()
	return false
}

// PreviousStep moves one step back. At the first step it reports true
// (exit), mirroring NextStep.
func (s *Session) PreviousStep() (exited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step <= 1 {
		return true
	}
	s.step--
	s.scheduleSaveLocked()
	return false
}

// formFieldSetters maps updatable field names to typed setters. There is
// deliberately no schema validation at write time; validation happens at
// submission.
var formFieldSetters = map[string]func(*filing.TaxFormData, any) error{
	"socialSecurityNumber": func(f *filing.TaxFormData, v any) error {
		val, ok := v.(string)
		if !ok {
			return fmt.Errorf("socialSecurityNumber: expected string, got %T", v)
		}
		f.SocialSecurityNumber = val
		return nil
	},
	"hasAdditionalIncome": func(f *filing.TaxFormData, v any) error {
		val, ok := v.(bool)
		if !ok {
			return fmt.Errorf("hasAdditionalIncome: expected bool, got %T", v)
		}
		f.HasAdditionalIncome = val
		return nil
	},
	"additionalIncomeSources": func(f *filing.TaxFormData, v any) error {
		val, ok := v.([]filing.AdditionalIncomeSource)
		if !ok {
			return fmt.Errorf("additionalIncomeSources: expected income source list, got %T", v)
		}
		f.AdditionalIncomeSources = val
		return nil
	},
}

func init() {
	// Category slices are updatable by their category name.
	for _, c := range filing.FixedCategories {
		cat := c
		formFieldSetters[string(cat)] = func(f *filing.TaxFormData, v any) error {
			val, ok := v.([]filing.UploadedDocument)
			if !ok {
				return fmt.Errorf("%s: expected document list, got %T", cat, v)
			}
			slot, _ := f.DocumentSlot(cat)
			*slot = val
			return nil
		}
	}
}

// UpdateFormData merges one field into the form, keyed by field name.
func (s *Session) UpdateFormData(field string, value any) error {
	setter, ok := formFieldSetters[field]
	if !ok {
		return fmt.Errorf("unknown form field %q", field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := setter(&s.form, value); err != nil {
		return err
	}
	s.scheduleSaveLocked()
	return nil
}

// FormData returns a deep copy of the current form.
func (s *Session) FormData() filing.TaxFormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Clone()
}

// Dependents returns a copy of the dependents list.
func (s *Session) Dependents() []filing.Dependent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]filing.Dependent(nil), s.dependents...)
}

// NumberOfDependents returns the separately edited count field.
func (s *Session) NumberOfDependents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numDependents
}

// SetNumberOfDependents parses the raw count the user typed. Blank or
// unparsable input means zero. Growing the count appends blank dependents;
// shrinking truncates from the tail, so identity beyond the new boundary
// is not preserved across shrink/grow cycles.
func (s *Session) SetNumberOfDependents(raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		n = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case n == 0:
		s.dependents = []filing.Dependent{}
	case n < len(s.dependents):
		s.dependents = s.dependents[:n]
	default:
		for len(s.dependents) < n {
			s.dependents = append(s.dependents, filing.NewDependent())
		}
	}
	s.numDependents = n
	s.scheduleSaveLocked()
}

// UpdateDependent mutates one field of a dependent by id.
func (s *Session) UpdateDependent(id, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.dependents {
		if s.dependents[i].ID != id {
			continue
		}
		switch field {
		case "name":
			s.dependents[i].Name = value
		case "age":
			s.dependents[i].Age = value
		case "relationship":
			s.dependents[i].Relationship = value
		default:
			return fmt.Errorf("unknown dependent field %q", field)
		}
		s.scheduleSaveLocked()
		return nil
	}
	return filing.ErrDependentNotFound
}

// RemoveDependent removes a dependent by id. The count field is left as
// the user last set it; only SetNumberOfDependents resizes by count.
func (s *Session) RemoveDependent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.dependents {
		if s.dependents[i].ID == id {
			s.dependents = append(s.dependents[:i], s.dependents[i+1:]...)
			s.scheduleSaveLocked()
			return
		}
	}
}

// --- document mutations used by the upload coordinator ---

// AppendDocument adds a document to a fixed category. It reports false for
// a category outside the fixed vocabulary (the append is dropped).
func (s *Session) AppendDocument(cat filing.Category, doc filing.UploadedDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.form.DocumentSlot(cat)
	if !ok {
		return false
	}
	*slot = append(*slot, doc)
	s.scheduleSaveLocked()
	return true
}

// PatchDocument applies patch to the document with the given id in a fixed
// category. It reports whether the document was found.
func (s *Session) PatchDocument(cat filing.Category, id string, patch func(*filing.UploadedDocument)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.form.DocumentSlot(cat)
	if !ok {
		return false
	}
	for i := range *slot {
		if (*slot)[i].ID == id {
			patch(&(*slot)[i])
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// RemoveDocument removes a document by id from a fixed category.
func (s *Session) RemoveDocument(cat filing.Category, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.form.DocumentSlot(cat)
	if !ok {
		return false
	}
	for i := range *slot {
		if (*slot)[i].ID == id {
			*slot = append((*slot)[:i], (*slot)[i+1:]...)
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// Document returns a copy of a document from a fixed category.
func (s *Session) Document(cat filing.Category, id string) (filing.UploadedDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.form.DocumentSlot(cat)
	if !ok {
		return filing.UploadedDocument{}, false
	}
	for _, d := range *slot {
		if d.ID == id {
			return d, true
		}
	}
	return filing.UploadedDocument{}, false
}

// AppendIncomeSourceDocument adds a document to an income source's nested
// list. It reports false when the source no longer exists.
func (s *Session) AppendIncomeSourceDocument(sourceID string, doc filing.UploadedDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.form.IncomeSource(sourceID)
	if src == nil {
		return false
	}
	src.Documents = append(src.Documents, doc)
	s.scheduleSaveLocked()
	return true
}

// PatchIncomeSourceDocument applies patch to a nested document. A source
// deleted while its upload was in flight makes this a no-op.
func (s *Session) PatchIncomeSourceDocument(sourceID, docID string, patch func(*filing.UploadedDocument)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.form.IncomeSource(sourceID)
	if src == nil {
		return false
	}
	for i := range src.Documents {
		if src.Documents[i].ID == docID {
			patch(&src.Documents[i])
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// RemoveIncomeSourceDocument removes a nested document by id.
func (s *Session) RemoveIncomeSourceDocument(sourceID, docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.form.IncomeSource(sourceID)
	if src == nil {
		return false
	}
	for i := range src.Documents {
		if src.Documents[i].ID == docID {
			src.Documents = append(src.Documents[:i], src.Documents[i+1:]...)
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// IncomeSourceDocument returns a copy of a nested document.
func (s *Session) IncomeSourceDocument(sourceID, docID string) (filing.UploadedDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.form.IncomeSource(sourceID)
	if src == nil {
		return filing.UploadedDocument{}, false
	}
	for _, d := range src.Documents {
		if d.ID == docID {
			return d, true
		}
	}
	return filing.UploadedDocument{}, false
}

// --- autosave ---

// scheduleSaveLocked arms the trailing-debounce save. A change arriving
// before the window elapses cancels and rearms it, so only the last state
// within any quiet window is written. Caller must hold s.mu.
func (s *Session) scheduleSaveLocked() {
	if !s.autosave || s.loadState != Loaded {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	gen := s.saveGen
	s.saveTimer = time.AfterFunc(s.saveDelay, func() { s.persist(gen) })
}

// persist writes the current state. Failures are logged and retried by the
// next debounce window; the caller never sees them. A gen behind the
// session's current one means the pending write was invalidated and is
// dropped.
func (s *Session) persist(gen uint64) {
	s.mu.Lock()
	if !s.autosave || gen != s.saveGen {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	userID := s.userID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := s.store.SaveSnapshot(ctx, userID, snap)
	s.metrics.AutosaveWritten(err)
	if err != nil {
		s.log.Error("autosave failed", "error", err)
		return
	}
	s.log.Debug("autosaved wizard snapshot", "step", snap.CurrentStep)
}

func (s *Session) snapshotLocked() storage.Snapshot {
	return storage.Snapshot{
		FormData:           s.form.Clone(),
		Dependents:         append([]filing.Dependent(nil), s.dependents...),
		NumberOfDependents: s.numDependents,
		CurrentStep:        s.step,
	}
}

// Flush cancels any pending debounce and writes the current state
// synchronously. Used on shutdown and in tests.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	enabled := s.autosave && s.loadState == Loaded
	gen := s.saveGen
	s.mu.Unlock()
	if enabled {
		s.persist(gen)
	}
}

// Reset clears the persisted snapshot and returns the in-memory state to
// defaults. Called after a successful submission.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.saveGen++
	s.step = 1
	s.form = filing.NewTaxFormData()
	s.dependents = nil
	s.numDependents = 0
	userID := s.userID
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	if err := s.store.ClearSnapshot(ctx, userID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
