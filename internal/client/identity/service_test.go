package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/credstore"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway/gatewaytest"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/session"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenGateway struct {
	*gatewaytest.Recorder
	token string
}

func (g *tokenGateway) AccessToken() string       { return g.token }
func (g *tokenGateway) SetAccessToken(tok string) { g.token = tok }

type memRemembrance struct {
	rec     *credstore.Remembered
	saved   int
	forgot  []int64
	saveErr error
	loadErr error
}

func (m *memRemembrance) Save(_ context.Context, u models.User, token, secret string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved++
	m.rec = &credstore.Remembered{User: u, Token: token, MasterSecret: secret}
	return nil
}

func (m *memRemembrance) Load(context.Context) (credstore.Remembered, bool, error) {
	if m.loadErr != nil {
		return credstore.Remembered{}, false, m.loadErr
	}
	if m.rec == nil {
		return credstore.Remembered{}, false, nil
	}
	return *m.rec, true, nil
}

func (m *memRemembrance) Forget(_ context.Context, userID int64) error {
	m.forgot = append(m.forgot, userID)
	m.rec = nil
	return nil
}

type fixture struct {
	gw       *tokenGateway
	sessions *session.Manager
	creds    *memRemembrance
	svc      *Service
}

func newFixture() *fixture {
	gw := &tokenGateway{Recorder: gatewaytest.New()}
	gw.On(common.CmdLogin, func(map[string]any) (any, error) {
		gw.token = "jwt"
		return models.User{ID: 7, Username: "alice"}, nil
	})
	gw.Return(common.CmdRegister, models.User{ID: 8, Username: "bob"}, nil)

	sessions := session.NewManager(gw, logging.NewNopLogger())
	creds := &memRemembrance{}
	return &fixture{
		gw:       gw,
		sessions: sessions,
		creds:    creds,
		svc:      NewService(gw, sessions, creds, logging.NewNopLogger()),
	}
}

func TestLogin_OpensSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	id, ok := f.svc.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	assert.Equal(t, []string{common.CmdLogin, common.CmdInitSession}, f.gw.Commands())
	assert.Equal(t, "master", f.gw.CallsOf(common.CmdLogin)[0].Params["masterKey"])
	assert.NoError(t, f.sessions.RequireOpen(7))
	assert.Zero(t, f.creds.saved)
}

func TestLogin_RememberSavesToken(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Login(context.Background(), "alice", "pw", "master", true)
	require.NoError(t, err)

	require.NotNil(t, f.creds.rec)
	assert.Equal(t, "jwt", f.creds.rec.Token)
	assert.Equal(t, "alice", f.creds.rec.User.Username)
	assert.Nil(t, f.creds.rec.User.Avatar)
}

func TestLogin_RememberFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.creds.saveErr = errors.New("disk full")

	_, err := f.svc.Login(context.Background(), "alice", "pw", "master", true)
	require.NoError(t, err)
	_, ok := f.svc.Current()
	assert.True(t, ok)
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Login(context.Background(), "alice", "pw", "", false)
	require.ErrorIs(t, err, gateway.ErrValidation)
	assert.Empty(t, f.gw.Calls())
}

func TestLogin_RejectedSecretLeavesNobodySignedIn(t *testing.T) {
	f := newFixture()
	f.gw.Return(common.CmdInitSession, nil, gateway.ErrAuthFailure)

	_, err := f.svc.Login(context.Background(), "alice", "pw", "wrong", true)
	require.ErrorIs(t, err, gateway.ErrAuthFailure)

	_, ok := f.svc.UserID()
	assert.False(t, ok)
	assert.Empty(t, f.gw.token)
	assert.Zero(t, f.creds.saved)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture()
	f.gw.Return(common.CmdLogin, nil, gateway.ErrAuthFailure)

	_, err := f.svc.Login(context.Background(), "alice", "bad", "master", false)
	require.ErrorIs(t, err, gateway.ErrAuthFailure)
	assert.Equal(t, []string{common.CmdLogin}, f.gw.Commands())
}

func TestRegister(t *testing.T) {
	f := newFixture()

	u, err := f.svc.Register(context.Background(), "bob", "pw", "master")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.NoError(t, f.sessions.RequireOpen(8))
}

func TestLogout_Order(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var trace []string
	f.svc.OnLogout(func(context.Context) {
		_, ok := f.svc.UserID()
		assert.False(t, ok)
		trace = append(trace, "vaults")
	})
	f.svc.OnLock(func(context.Context) {
		assert.False(t, f.sessions.IsOpen())
		trace = append(trace, "notes")
	})

	_, err := f.svc.Login(ctx, "alice", "pw", "master", true)
	require.NoError(t, err)
	f.gw.Reset()

	f.svc.Logout(ctx)

	assert.Equal(t, []string{"notes", "vaults"}, trace)
	assert.Equal(t, []string{common.CmdLogout}, f.gw.Commands())
	assert.Equal(t, []int64{7}, f.creds.forgot)
	assert.Nil(t, f.creds.rec)
	assert.Empty(t, f.gw.token)
}

func TestLogin_SignsOutPreviousUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var cleared []string
	f.svc.OnLock(func(context.Context) { cleared = append(cleared, "notes") })
	f.svc.OnLogout(func(context.Context) { cleared = append(cleared, "vaults") })

	_, err := f.svc.Login(ctx, "alice", "pw", "master", true)
	require.NoError(t, err)
	f.gw.Reset()

	u, err := f.svc.Register(ctx, "bob", "pw", "master")
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "vaults"}, cleared)
	assert.Equal(t, []string{common.CmdLogout, common.CmdRegister, common.CmdInitSession}, f.gw.Commands())
	assert.Equal(t, float64(7), f.gw.CallsOf(common.CmdLogout)[0].Params["userId"])
	assert.Equal(t, []int64{7}, f.creds.forgot)
	assert.Error(t, f.sessions.RequireOpen(7))
	assert.NoError(t, f.sessions.RequireOpen(u.ID))

	id, ok := f.svc.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(8), id)
}

func TestLogin_FailedSwitchLeavesNobodySignedIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)

	f.gw.Return(common.CmdRegister, nil, gateway.ErrValidation)
	_, err = f.svc.Register(ctx, "bob", "pw", "master")
	require.ErrorIs(t, err, gateway.ErrValidation)

	_, ok := f.svc.Current()
	assert.False(t, ok)
	assert.False(t, f.sessions.IsOpen())
}

func TestLogout_SucceedsWhenGatewayFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)

	f.gw.Return(common.CmdLogout, nil, gateway.ErrBackendUnavailable)
	f.svc.Logout(ctx)

	_, ok := f.svc.Current()
	assert.False(t, ok)
}

func TestLogout_NoUserIsNoop(t *testing.T) {
	f := newFixture()
	f.svc.Logout(context.Background())
	assert.Empty(t, f.gw.Calls())
	assert.Empty(t, f.creds.forgot)
}

func TestLock_KeepsUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	locked := 0
	f.svc.OnLock(func(context.Context) { locked++ })
	f.svc.OnLogout(func(context.Context) { t.Fatal("logout hook on lock") })

	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)

	f.svc.Lock(ctx)
	assert.Equal(t, 1, locked)
	assert.False(t, f.sessions.IsOpen())
	_, ok := f.svc.Current()
	assert.True(t, ok)

	require.NoError(t, f.svc.Unlock(ctx, "master"))
	assert.True(t, f.sessions.IsOpen())
}

func TestRestore(t *testing.T) {
	t.Run("nothing remembered", func(t *testing.T) {
		f := newFixture()
		_, restored, _, err := f.svc.Restore(context.Background())
		require.NoError(t, err)
		assert.False(t, restored)
	})

	t.Run("without secret stays locked", func(t *testing.T) {
		f := newFixture()
		f.creds.rec = &credstore.Remembered{User: models.User{ID: 7, Username: "alice"}, Token: "jwt"}

		u, restored, locked, err := f.svc.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, restored)
		assert.True(t, locked)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, "jwt", f.gw.token)
		assert.Empty(t, f.gw.Calls())
	})

	t.Run("with secret opens session", func(t *testing.T) {
		f := newFixture()
		f.creds.rec = &credstore.Remembered{User: models.User{ID: 7}, Token: "jwt", MasterSecret: "master"}

		_, restored, locked, err := f.svc.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, restored)
		assert.False(t, locked)
		assert.NoError(t, f.sessions.RequireOpen(7))
	})

	t.Run("rejected secret stays locked", func(t *testing.T) {
		f := newFixture()
		f.gw.Return(common.CmdInitSession, nil, gateway.ErrAuthFailure)
		f.creds.rec = &credstore.Remembered{User: models.User{ID: 7}, Token: "jwt", MasterSecret: "old"}

		_, restored, locked, err := f.svc.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, restored)
		assert.True(t, locked)
	})

	t.Run("load error", func(t *testing.T) {
		f := newFixture()
		f.creds.loadErr = errors.New("boom")
		_, restored, _, err := f.svc.Restore(context.Background())
		require.Error(t, err)
		assert.False(t, restored)
	})
}

func TestAccountCommands_RequireUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.ErrorIs(t, f.svc.ChangePassword(ctx, "m", "p"), gateway.ErrAuthFailure)
	require.ErrorIs(t, f.svc.DeleteAccount(ctx), gateway.ErrAuthFailure)
	require.ErrorIs(t, f.svc.UpdateAvatar(ctx, models.ImageRemove), gateway.ErrAuthFailure)
	_, err := f.svc.LoadAvatar(ctx)
	require.ErrorIs(t, err, gateway.ErrAuthFailure)
	require.ErrorIs(t, f.svc.Unlock(ctx, "m"), gateway.ErrAuthFailure)
	assert.Empty(t, f.gw.Calls())
}

func TestRecoverAndChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.RecoverPassword(ctx, "alice", "master", "new"))
	p := f.gw.CallsOf(common.CmdRecoverPassword)[0].Params
	assert.Equal(t, map[string]any{"username": "alice", "masterKey": "master", "newPassword": "new"}, p)

	require.ErrorIs(t, f.svc.RecoverPassword(ctx, "alice", "master", ""), gateway.ErrValidation)

	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)
	require.NoError(t, f.svc.ChangePassword(ctx, "master", "newer"))
	p = f.gw.CallsOf(common.CmdChangePassword)[0].Params
	assert.Equal(t, float64(7), p["userId"])
	assert.Equal(t, "newer", p["newPassword"])
}

func TestDeleteAccount_LogsOut(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "alice", "pw", "master", true)
	require.NoError(t, err)
	f.gw.Reset()

	require.NoError(t, f.svc.DeleteAccount(ctx))
	assert.Equal(t, []string{common.CmdDeleteUser, common.CmdLogout}, f.gw.Commands())
	_, ok := f.svc.Current()
	assert.False(t, ok)
}

func TestDeleteAccount_FailureKeepsUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)
	f.gw.Return(common.CmdDeleteUser, nil, gateway.ErrBackendUnavailable)

	require.ErrorIs(t, f.svc.DeleteAccount(ctx), gateway.ErrBackendUnavailable)
	_, ok := f.svc.Current()
	assert.True(t, ok)
}

func TestAvatar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)

	url := models.EncodeDataURL("image/webp", []byte{1, 2, 3})
	f.gw.Return(common.CmdGetUserAvatar, url, nil)

	got, err := f.svc.LoadAvatar(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, url, *got)

	require.NoError(t, f.svc.UpdateAvatar(ctx, models.ImageUnchanged))
	assert.Empty(t, f.gw.CallsOf(common.CmdUpdateAvatar))

	require.NoError(t, f.svc.UpdateAvatar(ctx, models.ImageRemove))
	p := f.gw.CallsOf(common.CmdUpdateAvatar)[0].Params
	v, present := p["avatar"]
	assert.True(t, present)
	assert.Nil(t, v)
	u, _ := f.svc.Current()
	assert.Nil(t, u.Avatar)

	require.NoError(t, f.svc.UpdateAvatar(ctx, models.ImageSet(url)))
	p = f.gw.CallsOf(common.CmdUpdateAvatar)[1].Params
	assert.Equal(t, "AQID", p["avatar"])
	u, _ = f.svc.Current()
	require.NotNil(t, u.Avatar)
	assert.Equal(t, url, *u.Avatar)

	require.ErrorIs(t, f.svc.UpdateAvatar(ctx, models.ImageSet("not a url")), gateway.ErrValidation)
}

func TestUpdateAvatar_FailureLeavesAvatar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "alice", "pw", "master", false)
	require.NoError(t, err)
	f.gw.Return(common.CmdUpdateAvatar, nil, gateway.ErrBackendUnavailable)

	url := models.EncodeDataURL("image/webp", []byte{1})
	require.Error(t, f.svc.UpdateAvatar(ctx, models.ImageSet(url)))
	u, _ := f.svc.Current()
	assert.Nil(t, u.Avatar)
}
