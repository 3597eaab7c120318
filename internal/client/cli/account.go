package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
)

func (a *App) credentials() (username, password, master string, err error) {
	if username, err = a.ask("Enter username"); err != nil {
		return
	}
	if password, err = a.askSecret("Password"); err != nil {
		return
	}
	master, err = a.askSecret("Master secret")
	return
}

func (a *App) Register(ctx context.Context, _ []string) error {
	username, password, master, err := a.credentials()
	if err != nil {
		return err
	}
	if _, err := a.identity.Register(ctx, username, password, master); err != nil {
		return err
	}
	a.println(Success.Sprint("Account created."))
	a.loadVaults(ctx)
	return nil
}

func (a *App) Login(ctx context.Context, _ []string) error {
	username, password, master, err := a.credentials()
	if err != nil {
		return err
	}
	remember := Confirm(a.reader, "Keep me signed in for 7 days?", a.out)

	u, err := a.identity.Login(ctx, username, password, master, remember)
	if err != nil {
		return err
	}
	a.printf("Signed in as %s.\n", Highlight.Sprint(u.Username))
	a.loadVaults(ctx)
	return nil
}

func (a *App) RecoverPassword(ctx context.Context, _ []string) error {
	username, err := a.ask("Enter username")
	if err != nil {
		return err
	}
	master, err := a.askSecret("Master secret")
	if err != nil {
		return err
	}
	password, err := a.askSecret("New password")
	if err != nil {
		return err
	}
	if err := a.identity.RecoverPassword(ctx, username, master, password); err != nil {
		return err
	}
	a.println(Success.Sprint("Password changed, you can 'login' now."))
	return nil
}

func (a *App) Unlock(ctx context.Context, _ []string) error {
	master, err := a.askSecret("Master secret")
	if err != nil {
		return err
	}
	if err := a.identity.Unlock(ctx, master); err != nil {
		return err
	}
	a.loadVaults(ctx)
	return nil
}

func (a *App) Lock(ctx context.Context, _ []string) error {
	a.identity.Lock(ctx)
	a.println("Locked.")
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.identity.Logout(ctx)
	a.println("Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context, _ []string) error {
	u, _ := a.identity.Current()
	avatar := "no avatar"
	if u.Avatar == nil {
		if loaded, err := a.identity.LoadAvatar(ctx); err == nil && loaded != nil {
			u.Avatar = loaded
		}
	}
	if u.Avatar != nil {
		if b, mediaType, err := models.DecodeDataURL(*u.Avatar); err == nil {
			avatar = fmt.Sprintf("avatar %s, %d bytes", mediaType, len(b))
		}
	}
	a.printf("%s (id %d) %s\n", Highlight.Sprint(u.Username), u.ID, Muted.Sprint(avatar))
	return nil
}

func (a *App) ChangePassword(ctx context.Context, _ []string) error {
	master, err := a.askSecret("Master secret")
	if err != nil {
		return err
	}
	password, err := a.askSecret("New password")
	if err != nil {
		return err
	}
	if err := a.identity.ChangePassword(ctx, master, password); err != nil {
		return err
	}
	a.println(Success.Sprint("Password changed."))
	return nil
}

func (a *App) DeleteAccount(ctx context.Context, _ []string) error {
	if !Confirm(a.reader, "Delete your account and every vault in it?", a.out) {
		return nil
	}
	if err := a.identity.DeleteAccount(ctx); err != nil {
		return err
	}
	a.println("Account deleted.")
	return nil
}

// Avatar sets the avatar from an image file, removes it with "-", or shows
// whether one is set.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.WhoAmI(ctx, nil)
	}
	update, err := imageArg(args[0])
	if err != nil {
		return err
	}
	if err := a.identity.UpdateAvatar(ctx, update); err != nil {
		return err
	}
	a.println(Success.Sprint("Avatar updated."))
	return nil
}

// imageArg turns a command argument into an image update: "-" removes, any
// other value is read as an image file.
func imageArg(arg string) (models.ImageUpdate, error) {
	if arg == "-" {
		return models.ImageRemove, nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return models.ImageUnchanged, err
	}
	return models.ImageSet(models.EncodeDataURL(http.DetectContentType(b), b)), nil
}
