package models

// User is an account row. Both secrets are stored as argon2id hashes;
// KeySalt binds the content key derived from the master secret.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	PasswordHash  string `json:"-"`
	MasterKeyHash string `json:"-"`
	KeySalt       []byte `json:"-"`
	Avatar        []byte `json:"-"`
	CreatedAt     int64  `json:"-"`
}

// Profile is what login and register hand back to the client.
type Profile struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar,omitempty"`
}
