// Package vaults holds the in-memory mirror of the current user's vaults and
// collections and keeps it in sync with the Backend Gateway.
//
// Single-record mutators are persist-first: the gateway is called and the
// mirror changes only on success. Reorders are optimistic: the mirror
// changes at once, positions are persisted afterwards, and a partial failure
// marks the store dirty until the next LoadAll.
//
// A vault id is listed by at most one collection. Every mutator that adds a
// vault to a collection checks or restores that invariant first.
package vaults

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/ordering"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

var ErrNoUser = fmt.Errorf("%w: no current user", gateway.ErrAuthFailure)

// NoteMirror is the part of the note store a vault deletion cascades into.
type NoteMirror interface {
	RemoveVaultNotes(vaultID string)
}

type Store struct {
	gw    gateway.Gateway
	user  identity.Provider
	notes NoteMirror
	log   logging.Logger

	mu          sync.RWMutex
	vaults      []models.Vault
	collections []models.Collection
	loading     bool
	dirty       bool
}

func NewStore(gw gateway.Gateway, user identity.Provider, notes NoteMirror, log logging.Logger) *Store {
	return &Store{
		gw:    gw,
		user:  user,
		notes: notes,
		log:   log.With("component", "vaults"),
	}
}

type userParams struct {
	UserID int64 `json:"userId"`
}

type vaultInput struct {
	Name  string `validate:"required,max=100"`
	Color string `validate:"vaultcolor"`
}

type collectionInput struct {
	Name string `validate:"required,max=100"`
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
}

func (s *Store) userID() (int64, error) {
	id, ok := s.user.UserID()
	if !ok {
		return 0, ErrNoUser
	}
	return id, nil
}

// LoadAll replaces both mirrors with the gateway's vaults and collections,
// fetched in parallel. userID 0 means "no user" and just clears them. On
// error the mirrors are left as they were.
func (s *Store) LoadAll(ctx context.Context, userID int64) error {
	if userID == 0 {
		s.mu.Lock()
		s.vaults, s.collections = nil, nil
		s.dirty = false
		s.mu.Unlock()
		return nil
	}

	s.setLoading(true)
	defer s.setLoading(false)

	var (
		vaults      []models.Vault
		collections []models.Collection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Call(gctx, common.CmdGetVaults, userParams{UserID: userID}, &vaults)
	})
	g.Go(func() error {
		return s.gw.Call(gctx, common.CmdGetCollections, userParams{UserID: userID}, &collections)
	})
	if err := g.Wait(); err != nil {
		s.log.Error(ctx, "load failed", "user_id", userID, "error", err)
		return fmt.Errorf("load vaults: %w", err)
	}

	s.mu.Lock()
	s.vaults = vaults
	s.collections = collections
	s.dirty = false
	s.mu.Unlock()

	s.log.Info(ctx, "loaded", "vaults", len(vaults), "collections", len(collections))
	return nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

type createVaultParams struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// CreateVault creates a vault and appends it to the mirror. A non-empty
// collectionName files it into the collection of that name, creating the
// collection when none exists. If filing fails the vault still exists and is
// returned together with the error.
func (s *Store) CreateVault(ctx context.Context, name, color, collectionName string) (models.Vault, error) {
	if err := models.Validate(vaultInput{Name: name, Color: color}); err != nil {
		return models.Vault{}, invalid(err)
	}
	userID, err := s.userID()
	if err != nil {
		return models.Vault{}, err
	}

	var v models.Vault
	if err := s.gw.Call(ctx, common.CmdCreateVault, createVaultParams{UserID: userID, Name: name, Color: color}, &v); err != nil {
		return models.Vault{}, fmt.Errorf("create vault: %w", err)
	}

	s.mu.Lock()
	s.vaults = append(s.vaults, v)
	s.mu.Unlock()

	s.log.Info(ctx, "vault created", "vault_id", v.ID)

	if collectionName == "" {
		return v, nil
	}

	if c, ok := s.collectionByName(collectionName); ok {
		c.VaultIDs = append(slices.Clone(c.VaultIDs), v.ID)
		if err := s.persistCollection(ctx, c); err != nil {
			return v, fmt.Errorf("add vault to collection %q: %w", collectionName, err)
		}
		s.replaceCollection(c)
		return v, nil
	}

	c, err := s.createCollection(ctx, userID, collectionName)
	if err != nil {
		return v, fmt.Errorf("create collection %q: %w", collectionName, err)
	}
	c.VaultIDs = []string{v.ID}
	if err := s.persistCollection(ctx, c); err != nil {
		s.appendCollection(c)
		return v, fmt.Errorf("add vault to collection %q: %w", collectionName, err)
	}
	s.appendCollection(c)
	return v, nil
}

// UpdateVault persists name, colour and the image update, then applies the
// same input to the mirror.
func (s *Store) UpdateVault(ctx context.Context, v models.Vault, image models.ImageUpdate) error {
	if err := models.Validate(vaultInput{Name: v.Name, Color: v.Color}); err != nil {
		return invalid(err)
	}

	params := map[string]any{
		"vaultId": v.ID,
		"name":    v.Name,
		"color":   v.Color,
	}
	if err := image.AddTo(params, "image"); err != nil {
		return invalid(err)
	}

	if err := s.gw.Call(ctx, common.CmdUpdateVault, params, nil); err != nil {
		return fmt.Errorf("update vault: %w", err)
	}

	s.mu.Lock()
	for i := range s.vaults {
		if s.vaults[i].ID == v.ID {
			s.vaults[i].Name = v.Name
			s.vaults[i].Color = v.Color
			s.vaults[i].Image = image.Apply(s.vaults[i].Image)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

type vaultIDParams struct {
	VaultID string `json:"vaultId"`
}

// DeleteVault deletes the vault on the gateway, then removes it from its
// collection (persisting that collection), from the mirror and, through the
// NoteMirror, drops its notes and selection.
func (s *Store) DeleteVault(ctx context.Context, vaultID string) error {
	if err := s.gw.Call(ctx, common.CmdDeleteVault, vaultIDParams{VaultID: vaultID}, nil); err != nil {
		return fmt.Errorf("delete vault: %w", err)
	}

	if c, ok := s.CollectionOf(vaultID); ok {
		c.VaultIDs = slices.DeleteFunc(slices.Clone(c.VaultIDs), func(id string) bool { return id == vaultID })
		if err := s.persistCollection(ctx, c); err != nil {
			s.log.Warn(ctx, "collection update after vault delete failed", "collection_id", c.ID, "error", err)
			s.markDirty()
		}
		s.replaceCollection(c)
	}

	s.mu.Lock()
	s.vaults = slices.DeleteFunc(s.vaults, func(v models.Vault) bool { return v.ID == vaultID })
	s.mu.Unlock()

	if s.notes != nil {
		s.notes.RemoveVaultNotes(vaultID)
	}

	s.log.Info(ctx, "vault deleted", "vault_id", vaultID)
	return nil
}

type vaultPositionParams struct {
	VaultID     string `json:"vaultId"`
	NewPosition int    `json:"newPosition"`
}

// ReorderVaults puts newOrder at the front of the mirror with positions
// 0..n-1 and then persists each position in that order. Vaults not named
// keep their relative order after them.
func (s *Store) ReorderVaults(ctx context.Context, newOrder []models.Vault) error {
	s.mu.Lock()
	reordered, err := ordering.Rearrange(s.vaults, newOrder)
	if err != nil {
		s.mu.Unlock()
		return invalid(err)
	}
	for i := range newOrder {
		reordered[i].Position = i
	}
	s.vaults = reordered
	s.mu.Unlock()

	err = ordering.Apply(ctx, newOrder, func(ctx context.Context, id string, pos int) error {
		return s.gw.Call(ctx, common.CmdUpdateVaultPosition, vaultPositionParams{VaultID: id, NewPosition: pos}, nil)
	})
	return s.reorderResult(ctx, "vaults", err)
}

// ReorderCollections is ReorderVaults for collections; each position is
// persisted by saving the whole collection record.
func (s *Store) ReorderCollections(ctx context.Context, newOrder []models.Collection) error {
	s.mu.Lock()
	reordered, err := ordering.Rearrange(s.collections, newOrder)
	if err != nil {
		s.mu.Unlock()
		return invalid(err)
	}
	for i := range newOrder {
		reordered[i].Position = i
	}
	s.collections = reordered
	snapshot := cloneCollections(reordered[:len(newOrder)])
	s.mu.Unlock()

	err = ordering.Apply(ctx, snapshot, func(ctx context.Context, _ string, pos int) error {
		return s.persistCollection(ctx, snapshot[pos])
	})
	return s.reorderResult(ctx, "collections", err)
}

// ReorderVaultsInCollection replaces one collection's vault order at once and
// then persists the collection.
func (s *Store) ReorderVaultsInCollection(ctx context.Context, collectionID string, newVaultIDs []string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.collections, func(c models.Collection) bool { return c.ID == collectionID })
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("reorder collection %s: %w", collectionID, gateway.ErrNotFound)
	}
	if err := s.checkMembershipLocked(collectionID, newVaultIDs); err != nil {
		s.mu.Unlock()
		return err
	}
	s.collections[idx].VaultIDs = slices.Clone(newVaultIDs)
	c := cloneCollection(s.collections[idx])
	s.mu.Unlock()

	var err error
	if perr := s.persistCollection(ctx, c); perr != nil {
		err = &ordering.PersistError{Failures: []ordering.Failure{{ID: c.ID, Position: c.Position, Err: perr}}}
	}
	return s.reorderResult(ctx, "collection vaults", err)
}

func (s *Store) reorderResult(ctx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	s.markDirty()
	s.log.Error(ctx, "reorder not fully persisted", "what", what, "error", err)
	return err
}

func (s *Store) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

type createCollectionParams struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

// CreateCollection creates an empty collection and appends it to the mirror.
func (s *Store) CreateCollection(ctx context.Context, name string) (models.Collection, error) {
	if err := models.Validate(collectionInput{Name: name}); err != nil {
		return models.Collection{}, invalid(err)
	}
	userID, err := s.userID()
	if err != nil {
		return models.Collection{}, err
	}
	c, err := s.createCollection(ctx, userID, name)
	if err != nil {
		return models.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	s.appendCollection(c)
	return c, nil
}

func (s *Store) createCollection(ctx context.Context, userID int64, name string) (models.Collection, error) {
	var c models.Collection
	if err := s.gw.Call(ctx, common.CmdCreateCollection, createCollectionParams{UserID: userID, Name: name}, &c); err != nil {
		return models.Collection{}, err
	}
	if c.VaultIDs == nil {
		c.VaultIDs = []string{}
	}
	s.log.Info(ctx, "collection created", "collection_id", c.ID)
	return c, nil
}

type updateCollectionParams struct {
	CollectionID string   `json:"collectionId"`
	Name         string   `json:"name"`
	VaultIDs     []string `json:"vaultIds"`
	Position     int      `json:"position"`
}

func (s *Store) persistCollection(ctx context.Context, c models.Collection) error {
	ids := c.VaultIDs
	if ids == nil {
		ids = []string{}
	}
	return s.gw.Call(ctx, common.CmdUpdateCollection, updateCollectionParams{
		CollectionID: c.ID,
		Name:         c.Name,
		VaultIDs:     ids,
		Position:     c.Position,
	}, nil)
}

// UpdateCollection persists the full collection record. Listing a vault that
// another collection already holds is rejected locally.
func (s *Store) UpdateCollection(ctx context.Context, c models.Collection) error {
	if err := models.Validate(collectionInput{Name: c.Name}); err != nil {
		return invalid(err)
	}
	s.mu.RLock()
	err := s.checkMembershipLocked(c.ID, c.VaultIDs)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := s.persistCollection(ctx, c); err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	s.replaceCollection(cloneCollection(c))
	return nil
}

type collectionIDParams struct {
	CollectionID string `json:"collectionId"`
}

// DeleteCollection removes the collection; its vaults become unassigned.
func (s *Store) DeleteCollection(ctx context.Context, collectionID string) error {
	if err := s.gw.Call(ctx, common.CmdDeleteCollection, collectionIDParams{CollectionID: collectionID}, nil); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	s.mu.Lock()
	s.collections = slices.DeleteFunc(s.collections, func(c models.Collection) bool { return c.ID == collectionID })
	s.mu.Unlock()
	return nil
}

// MoveVaultToCollection files vaultID into collectionID, first taking it out
// of whichever collection lists it now. An empty collectionID just unassigns
// the vault.
func (s *Store) MoveVaultToCollection(ctx context.Context, vaultID, collectionID string) error {
	s.mu.RLock()
	known := slices.ContainsFunc(s.vaults, func(v models.Vault) bool { return v.ID == vaultID })
	target, hasTarget := s.collectionByIDLocked(collectionID)
	s.mu.RUnlock()

	if !known {
		return fmt.Errorf("move vault %s: %w", vaultID, gateway.ErrNotFound)
	}
	if collectionID != "" && !hasTarget {
		return fmt.Errorf("move vault to %s: %w", collectionID, gateway.ErrNotFound)
	}

	if from, ok := s.CollectionOf(vaultID); ok {
		if from.ID == collectionID {
			return nil
		}
		from.VaultIDs = slices.DeleteFunc(from.VaultIDs, func(id string) bool { return id == vaultID })
		if err := s.persistCollection(ctx, from); err != nil {
			return fmt.Errorf("remove vault from collection: %w", err)
		}
		s.replaceCollection(from)
	}

	if collectionID == "" {
		return nil
	}

	target.VaultIDs = append(target.VaultIDs, vaultID)
	if err := s.persistCollection(ctx, target); err != nil {
		return fmt.Errorf("add vault to collection: %w", err)
	}
	s.replaceCollection(target)
	return nil
}

// checkMembershipLocked fails when any of ids is listed by a collection other
// than collectionID.
func (s *Store) checkMembershipLocked(collectionID string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: vault %s listed twice", gateway.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}
	for _, c := range s.collections {
		if c.ID == collectionID {
			continue
		}
		for _, id := range c.VaultIDs {
			if _, ok := seen[id]; ok {
				return fmt.Errorf("%w: vault %s already belongs to collection %q", gateway.ErrValidation, id, c.Name)
			}
		}
	}
	return nil
}

func (s *Store) collectionByName(name string) (models.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if c.Name == name {
			return cloneCollection(c), true
		}
	}
	return models.Collection{}, false
}

func (s *Store) collectionByIDLocked(id string) (models.Collection, bool) {
	for _, c := range s.collections {
		if c.ID == id {
			return cloneCollection(c), true
		}
	}
	return models.Collection{}, false
}

func (s *Store) replaceCollection(c models.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.collections {
		if s.collections[i].ID == c.ID {
			s.collections[i] = c
			return
		}
	}
}

func (s *Store) appendCollection(c models.Collection) {
	s.mu.Lock()
	s.collections = append(s.collections, c)
	s.mu.Unlock()
}

// Vaults returns a copy of the vault mirror in display order.
func (s *Store) Vaults() []models.Vault {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.vaults)
}

func (s *Store) Vault(id string) (models.Vault, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vaults {
		if v.ID == id {
			return v, true
		}
	}
	return models.Vault{}, false
}

func (s *Store) Collections() []models.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCollections(s.collections)
}

// UnassignedVaults lists vaults no collection refers to, in mirror order.
func (s *Store) UnassignedVaults() []models.Vault {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assigned := map[string]struct{}{}
	for _, c := range s.collections {
		for _, id := range c.VaultIDs {
			assigned[id] = struct{}{}
		}
	}
	out := make([]models.Vault, 0, len(s.vaults))
	for _, v := range s.vaults {
		if _, ok := assigned[v.ID]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// VaultsIn returns the vaults of a collection in the collection's order.
func (s *Store) VaultsIn(collectionID string) []models.Vault {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collectionByIDLocked(collectionID)
	if !ok {
		return nil
	}
	out := make([]models.Vault, 0, len(c.VaultIDs))
	for _, id := range c.VaultIDs {
		for _, v := range s.vaults {
			if v.ID == id {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// CollectionOf returns the collection listing vaultID, if any.
func (s *Store) CollectionOf(vaultID string) (models.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if c.Contains(vaultID) {
			return cloneCollection(c), true
		}
	}
	return models.Collection{}, false
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Dirty reports whether a reorder since the last LoadAll failed to persist.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func cloneCollection(c models.Collection) models.Collection {
	c.VaultIDs = slices.Clone(c.VaultIDs)
	return c
}

func cloneCollections(in []models.Collection) []models.Collection {
	if in == nil {
		return nil
	}
	out := make([]models.Collection, len(in))
	for i, c := range in {
		out[i] = cloneCollection(c)
	}
	return out
}
