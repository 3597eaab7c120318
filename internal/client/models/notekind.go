package models

import "strings"

// AccessDelimiter separates identifier and secret in an access note.
const AccessDelimiter = "::"

// NoteKind is either SimpleNote or AccessNote.
type NoteKind interface {
	// Content renders the kind back to note content.
	Content() string
	isNoteKind()
}

type SimpleNote struct {
	Text string
}

func (s SimpleNote) Content() string { return s.Text }
func (SimpleNote) isNoteKind()       {}

// AccessNote is a credential pair stored as identifier + "::" + secret.
type AccessNote struct {
	Identifier string
	Secret     string
}

func (a AccessNote) Content() string { return a.Identifier + AccessDelimiter + a.Secret }
func (AccessNote) isNoteKind()       {}

// ClassifyNote derives the kind of content. Content containing the
// delimiter is an access note, split on the first occurrence: an identifier
// containing "::" therefore cannot round-trip, while a secret can.
func ClassifyNote(content string) NoteKind {
	identifier, secret, found := strings.Cut(content, AccessDelimiter)
	if !found {
		return SimpleNote{Text: content}
	}
	return AccessNote{Identifier: identifier, Secret: secret}
}
