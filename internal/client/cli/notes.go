package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/ordering"
)

const mask = "••••••••"

func (a *App) selectedVault() (string, error) {
	id := a.notes.SelectedVaultID()
	if id == "" {
		return "", fmt.Errorf("%w: no vault open, use 'open <vault#>'", gateway.ErrValidation)
	}
	return id, nil
}

func (a *App) noteArg(args []string) (models.Note, error) {
	if _, err := a.selectedVault(); err != nil {
		return models.Note{}, err
	}
	if len(args) == 0 {
		return models.Note{}, errUsage
	}
	list := a.notes.Notes()
	i, err := index(args[0], len(list))
	if err != nil {
		return models.Note{}, err
	}
	return list[i], nil
}

func (a *App) OpenVault(ctx context.Context, args []string) error {
	v, err := a.vaultArg(args, 0)
	if err != nil {
		return err
	}
	if err := a.notes.SelectVault(ctx, v.ID); err != nil {
		return err
	}
	return a.ListNotes(ctx, nil)
}

func (a *App) CloseVault(_ context.Context, _ []string) error {
	a.notes.Deselect()
	return nil
}

func (a *App) ListNotes(_ context.Context, _ []string) error {
	if _, err := a.selectedVault(); err != nil {
		return err
	}
	list := a.notes.Notes()
	if len(list) == 0 {
		a.println("No notes. Use 'note-add' to write one.")
	}
	for i, n := range list {
		a.printf("%d. %s %s\n", i+1, Highlight.Sprint(n.Title), a.renderContent(n))
	}
	if a.notes.Dirty() {
		a.println(Warning.Sprint("Order was not fully saved; 'reload' to see what the gateway has."))
	}
	return nil
}

func (a *App) renderContent(n models.Note) string {
	locked := a.notes.IsLocked(n.ID)
	switch k := n.Kind().(type) {
	case models.AccessNote:
		secret := k.Secret
		if locked {
			secret = mask
		}
		return fmt.Sprintf("%s %s / %s", Muted.Sprint("access"), k.Identifier, secret)
	default:
		if locked {
			return mask
		}
		return n.Content
	}
}

// AddNote writes a simple note, or with "access" an identifier and secret
// pair.
func (a *App) AddNote(ctx context.Context, args []string) error {
	vaultID, err := a.selectedVault()
	if err != nil {
		return err
	}
	title, err := a.ask("Title")
	if err != nil {
		return err
	}

	var content string
	if len(args) > 0 && args[0] == "access" {
		content, err = a.askAccess(models.AccessNote{})
	} else {
		content, err = GetMultiline(a.reader, "Content", a.out)
	}
	if err != nil {
		return err
	}

	if _, err := a.notes.CreateNote(ctx, vaultID, title, content); err != nil {
		return err
	}
	a.println(Success.Sprint("Note saved."))
	return nil
}

// askAccess prompts for an identifier and secret; empty answers keep cur.
func (a *App) askAccess(cur models.AccessNote) (string, error) {
	identifier, err := a.ask("Identifier")
	if err != nil {
		return "", err
	}
	secret, err := a.askSecret("Secret")
	if err != nil {
		return "", err
	}
	if identifier != "" {
		cur.Identifier = identifier
	}
	if secret != "" {
		cur.Secret = secret
	}
	return cur.Content(), nil
}

func (a *App) EditNote(ctx context.Context, args []string) error {
	n, err := a.noteArg(args)
	if err != nil {
		return err
	}
	title, err := a.ask(fmt.Sprintf("Title [%s]", n.Title))
	if err != nil {
		return err
	}
	if title == "" {
		title = n.Title
	}

	content := n.Content
	if access, ok := n.Kind().(models.AccessNote); ok {
		content, err = a.askAccess(access)
	} else {
		var text string
		text, err = GetMultiline(a.reader, "Content (empty keeps the current one)", a.out)
		if text != "" {
			content = text
		}
	}
	if err != nil {
		return err
	}
	return a.notes.UpdateNote(ctx, n.ID, title, content)
}

func (a *App) DeleteNote(ctx context.Context, args []string) error {
	n, err := a.noteArg(args)
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete note %q?", n.Title), a.out) {
		return nil
	}
	return a.notes.DeleteNote(ctx, n.ID)
}

func (a *App) MoveNote(ctx context.Context, args []string) error {
	if _, err := a.selectedVault(); err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}
	list := a.notes.Notes()
	from, err := index(args[0], len(list))
	if err != nil {
		return err
	}
	to, err := index(args[1], len(list))
	if err != nil {
		return err
	}
	moved, err := ordering.Move(list, from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
	}
	return a.notes.ReorderNotes(ctx, moved)
}

func (a *App) ShowNote(ctx context.Context, args []string) error {
	n, err := a.noteArg(args)
	if err != nil {
		return err
	}
	a.notes.Unlock(n.ID)
	a.printf("%s\n%s\n", Highlight.Sprint(n.Title), a.renderContent(n))
	return nil
}

// HideNote masks one note again, or every note without an argument.
func (a *App) HideNote(_ context.Context, args []string) error {
	if len(args) == 0 {
		if _, err := a.selectedVault(); err != nil {
			return err
		}
		for _, n := range a.notes.Notes() {
			a.notes.Lock(n.ID)
		}
		return nil
	}
	n, err := a.noteArg(args)
	if err != nil {
		return err
	}
	a.notes.Lock(n.ID)
	return nil
}
