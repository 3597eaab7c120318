package models

import "slices"

type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar,omitempty"`
}

// Vault is a named container of notes. Position orders vaults that are not
// listed by any collection.
type Vault struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	Position  int       `json:"position"`
}

func (v Vault) DragID() string { return v.ID }

// Collection is a named, ordered grouping of vault ids.
type Collection struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	VaultIDs  []string  `json:"vaultIds"`
	Position  int       `json:"position"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (c Collection) DragID() string { return c.ID }

func (c Collection) Contains(vaultID string) bool {
	return slices.Contains(c.VaultIDs, vaultID)
}

type Note struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vaultId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
	Position  int       `json:"position"`
}

func (n Note) DragID() string { return n.ID }

// Kind classifies the note by its content.
func (n Note) Kind() NoteKind { return ClassifyNote(n.Content) }

// Colors is the vault colour palette.
var Colors = []string{"primary", "secondary", "success", "warning", "error", "info", "orange", "pink"}

const DefaultColor = "primary"

func IsValidColor(c string) bool {
	return slices.Contains(Colors, c)
}
