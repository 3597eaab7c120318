package identity

// Provider supplies the id of the current user to the stores. ok is false
// when nobody is signed in.
type Provider interface {
	UserID() (id int64, ok bool)
}

// StaticProvider is a fixed Provider, handy for tests and tools.
type StaticProvider int64

func (p StaticProvider) UserID() (int64, bool) {
	return int64(p), p != 0
}
