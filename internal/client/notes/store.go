// Package notes mirrors the notes of the currently selected vault and keeps
// the locked overlay: the set of note ids whose content is masked. Every
// fresh load locks all fetched notes; notes created afterwards start
// unlocked.
package notes

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/ordering"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/session"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

type Store struct {
	gw    gateway.Gateway
	user  identity.Provider
	guard session.Guard
	log   logging.Logger
	now   func() time.Time

	mu       sync.RWMutex
	notes    []models.Note
	selected string
	locked   map[string]struct{}
	loads    int
	dirty    bool
}

func NewStore(gw gateway.Gateway, user identity.Provider, guard session.Guard, log logging.Logger) *Store {
	return &Store{
		gw:     gw,
		user:   user,
		guard:  guard,
		log:    log.With("component", "notes"),
		now:    time.Now,
		locked: map[string]struct{}{},
	}
}

type noteInput struct {
	Title string `validate:"required,max=200"`
}

func (s *Store) userID() (int64, error) {
	id, ok := s.user.UserID()
	if !ok {
		return 0, fmt.Errorf("%w: no current user", gateway.ErrAuthFailure)
	}
	return id, nil
}

// SelectVault points the store at vaultID and loads its notes. Switching to
// another vault empties the mirror and the overlay first, so a failed load
// leaves the new vault selected with nothing shown.
func (s *Store) SelectVault(ctx context.Context, vaultID string) error {
	s.mu.Lock()
	if s.selected != vaultID {
		s.clearSelection()
		s.selected = vaultID
		s.dirty = false
	}
	s.mu.Unlock()
	return s.LoadNotes(ctx, vaultID)
}

// Deselect clears the selection, the mirror and the overlay.
func (s *Store) Deselect() {
	s.mu.Lock()
	s.clearSelection()
	s.mu.Unlock()
}

// Clear is Deselect plus forgetting any dirty ordering; used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.clearSelection()
	s.dirty = false
	s.mu.Unlock()
}

// clearSelection expects s.mu to be held.
func (s *Store) clearSelection() {
	s.selected = ""
	s.notes = nil
	s.locked = map[string]struct{}{}
}

type listParams struct {
	VaultID string `json:"vaultId"`
	UserID  int64  `json:"userId"`
}

// LoadNotes fetches decrypted notes for vaultID, replaces the mirror and
// locks every fetched note. It refuses to call the gateway unless a session
// is open for the current user. A result for a vault that is no longer
// selected when it arrives is dropped.
func (s *Store) LoadNotes(ctx context.Context, vaultID string) error {
	userID, err := s.userID()
	if err != nil {
		return err
	}
	if err := s.guard.RequireOpen(userID); err != nil {
		return fmt.Errorf("load notes: %w: %w", gateway.ErrAuthFailure, err)
	}

	s.beginLoad()
	defer s.endLoad()

	var notes []models.Note
	if err := s.gw.Call(ctx, common.CmdGetNotesDecrypted, listParams{VaultID: vaultID, UserID: userID}, &notes); err != nil {
		s.log.Error(ctx, "load failed", "vault_id", vaultID, "error", err)
		return fmt.Errorf("load notes: %w", err)
	}

	locked := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		locked[n.ID] = struct{}{}
	}

	s.mu.Lock()
	if s.selected != vaultID {
		s.mu.Unlock()
		s.log.Debug(ctx, "stale notes dropped", "vault_id", vaultID)
		return nil
	}
	s.notes = notes
	s.locked = locked
	s.dirty = false
	s.mu.Unlock()

	s.log.Debug(ctx, "notes loaded", "vault_id", vaultID, "count", len(notes))
	return nil
}

func (s *Store) beginLoad() {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
}

func (s *Store) endLoad() {
	s.mu.Lock()
	s.loads--
	s.mu.Unlock()
}

type createParams struct {
	VaultID string `json:"vaultId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int64  `json:"userId"`
}

// CreateNote persists a note and, if it belongs to the selected vault,
// appends it to the mirror unlocked.
func (s *Store) CreateNote(ctx context.Context, vaultID, title, content string) (models.Note, error) {
	if err := models.Validate(noteInput{Title: title}); err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", gateway.ErrValidation, err)
	}
	userID, err := s.userID()
	if err != nil {
		return models.Note{}, err
	}

	var n models.Note
	err = s.gw.Call(ctx, common.CmdCreateNote, createParams{VaultID: vaultID, Title: title, Content: content, UserID: userID}, &n)
	if err != nil {
		return models.Note{}, fmt.Errorf("create note: %w", err)
	}

	s.mu.Lock()
	if s.selected == vaultID {
		s.notes = append(s.notes, n)
	}
	s.mu.Unlock()

	s.log.Info(ctx, "note created", "note_id", n.ID, "vault_id", vaultID)
	return n, nil
}

type updateParams struct {
	NoteID  string `json:"noteId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int64  `json:"userId"`
}

// UpdateNote persists title and content; the mirror entry changes only after
// the gateway accepts it.
func (s *Store) UpdateNote(ctx context.Context, noteID, title, content string) error {
	if err := models.Validate(noteInput{Title: title}); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
	}
	userID, err := s.userID()
	if err != nil {
		return err
	}

	err = s.gw.Call(ctx, common.CmdUpdateNote, updateParams{NoteID: noteID, Title: title, Content: content, UserID: userID}, nil)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == noteID {
			s.notes[i].Title = title
			s.notes[i].Content = content
			s.notes[i].UpdatedAt = models.NewTimestamp(s.now())
			break
		}
	}
	s.mu.Unlock()
	return nil
}

type noteIDParams struct {
	NoteID string `json:"noteId"`
}

// DeleteNote persists the deletion and drops the note from the mirror. Its
// id may stay in the overlay, where it is simply unreferenced.
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	if err := s.gw.Call(ctx, common.CmdDeleteNote, noteIDParams{NoteID: noteID}, nil); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.mu.Lock()
	s.notes = slices.DeleteFunc(s.notes, func(n models.Note) bool { return n.ID == noteID })
	s.mu.Unlock()
	return nil
}

type positionParams struct {
	NoteID      string `json:"noteId"`
	NewPosition int    `json:"newPosition"`
}

// ReorderNotes applies newOrder to the mirror at once, then persists each
// note's position in order. Failures mark the store dirty.
func (s *Store) ReorderNotes(ctx context.Context, newOrder []models.Note) error {
	s.mu.Lock()
	reordered, err := ordering.Rearrange(s.notes, newOrder)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
	}
	for i := range newOrder {
		reordered[i].Position = i
	}
	s.notes = reordered
	s.mu.Unlock()

	err = ordering.Apply(ctx, newOrder, func(ctx context.Context, id string, pos int) error {
		return s.gw.Call(ctx, common.CmdUpdateNotePosition, positionParams{NoteID: id, NewPosition: pos}, nil)
	})
	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		s.log.Error(ctx, "reorder not fully persisted", "error", err)
		return err
	}
	return nil
}

// RemoveVaultNotes drops the notes of a deleted vault and, if that vault was
// selected, the selection and overlay as well.
func (s *Store) RemoveVaultNotes(vaultID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == vaultID {
		s.clearSelection()
		return
	}
	s.notes = slices.DeleteFunc(s.notes, func(n models.Note) bool { return n.VaultID == vaultID })
}

func (s *Store) IsLocked(noteID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.locked[noteID]
	return ok
}

func (s *Store) Lock(noteID string) {
	s.mu.Lock()
	s.locked[noteID] = struct{}{}
	s.mu.Unlock()
}

func (s *Store) Unlock(noteID string) {
	s.mu.Lock()
	delete(s.locked, noteID)
	s.mu.Unlock()
}

// Toggle flips the note's locked state and returns the new state.
func (s *Store) Toggle(noteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locked[noteID]; ok {
		delete(s.locked, noteID)
		return false
	}
	s.locked[noteID] = struct{}{}
	return true
}

// LockedIDs returns the overlay as a sorted slice.
func (s *Store) LockedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.locked))
	for id := range s.locked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Notes() []models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

func (s *Store) Note(id string) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

// SelectedVaultID returns "" when no vault is selected.
func (s *Store) SelectedVaultID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Loading reports whether any load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads > 0
}

func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}
