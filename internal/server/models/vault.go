package models

// Vault is both the stored row and the wire record. While stored, Name is
// ciphertext; services hand out copies with Name decrypted and Image filled.
type Vault struct {
	ID        string  `json:"id"`
	UserID    int64   `json:"userId"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Image     *string `json:"image,omitempty"`
	HasImage  bool    `json:"-"`
	CreatedAt int64   `json:"createdAt"`
	Position  int     `json:"position"`
}

// Collection groups vaults. VaultIDs keeps member order; a vault belongs to
// at most one collection.
type Collection struct {
	ID        string   `json:"id"`
	UserID    int64    `json:"userId"`
	Name      string   `json:"name"`
	VaultIDs  []string `json:"vaultIds"`
	Position  int      `json:"position"`
	CreatedAt int64    `json:"createdAt"`
}

type Note struct {
	ID        string `json:"id"`
	VaultID   string `json:"vaultId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Position  int    `json:"position"`
}
