package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	pb "github.com/dmitrijs2005/vaultkeeper/internal/proto"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// handlerFunc runs one command. userID is zero for public commands.
type handlerFunc func(ctx context.Context, userID int64, raw json.RawMessage) (any, error)

var validate = validator.New(validator.WithRequiredStructEnabled())

// owned is implemented by params that name the acting user.
type owned interface {
	owner() int64
}

type userRef struct {
	UserID int64 `json:"userId" validate:"required"`
}

func (r userRef) owner() int64 { return r.UserID }

// command adapts a typed handler: it decodes and validates the params and
// rejects a userId that differs from the token's user.
func command[P any](fn func(ctx context.Context, userID int64, p P) (any, error)) handlerFunc {
	return func(ctx context.Context, userID int64, raw json.RawMessage) (any, error) {
		var p P
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		if o, ok := any(p).(owned); ok && o.owner() != userID {
			return nil, errForeignUser
		}
		return fn(ctx, userID, p)
	}
}

type credentialsParams struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required"`
	MasterKey string `json:"masterKey"`
}

type registerParams struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required"`
	MasterKey string `json:"masterKey" validate:"required"`
}

type recoverParams struct {
	Username    string `json:"username" validate:"required"`
	MasterKey   string `json:"masterKey" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type changePasswordParams struct {
	userRef
	MasterKey   string `json:"masterKey" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type initSessionParams struct {
	userRef
	MasterKey string `json:"masterKey" validate:"required"`
}

type avatarParams struct {
	userRef
	Avatar models.ImageChange `json:"avatar"`
}

type createVaultParams struct {
	userRef
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"oneof=primary secondary success warning error info orange pink"`
}

type updateVaultParams struct {
	VaultID string             `json:"vaultId" validate:"required"`
	Name    string             `json:"name" validate:"required,max=100"`
	Color   string             `json:"color" validate:"oneof=primary secondary success warning error info orange pink"`
	Image   models.ImageChange `json:"image"`
}

type vaultPositionParams struct {
	VaultID     string `json:"vaultId" validate:"required"`
	NewPosition int    `json:"newPosition" validate:"min=0"`
}

type vaultIDParams struct {
	VaultID string `json:"vaultId" validate:"required"`
}

type createCollectionParams struct {
	userRef
	Name string `json:"name" validate:"required,max=100"`
}

type updateCollectionParams struct {
	CollectionID string   `json:"collectionId" validate:"required"`
	Name         string   `json:"name" validate:"required,max=100"`
	VaultIDs     []string `json:"vaultIds" validate:"dive,required"`
	Position     int      `json:"position" validate:"min=0"`
}

type collectionIDParams struct {
	CollectionID string `json:"collectionId" validate:"required"`
}

type listNotesParams struct {
	userRef
	VaultID string `json:"vaultId" validate:"required"`
}

type createNoteParams struct {
	userRef
	VaultID string `json:"vaultId" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
}

type updateNoteParams struct {
	userRef
	NoteID  string `json:"noteId" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
}

type notePositionParams struct {
	NoteID      string `json:"noteId" validate:"required"`
	NewPosition int    `json:"newPosition" validate:"min=0"`
}

type noteIDParams struct {
	NoteID string `json:"noteId" validate:"required"`
}

type empty struct{}

func (s *GRPCServer) commandTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		common.CmdPing: command(func(ctx context.Context, _ int64, _ empty) (any, error) {
			return "pong", nil
		}),

		common.CmdLogin: command(func(ctx context.Context, _ int64, p credentialsParams) (any, error) {
			profile, token, err := s.users.Login(ctx, p.Username, p.Password, p.MasterKey)
			if err != nil {
				return nil, err
			}
			return profile, sendAccessToken(ctx, token)
		}),
		common.CmdRegister: command(func(ctx context.Context, _ int64, p registerParams) (any, error) {
			profile, token, err := s.users.Register(ctx, p.Username, p.Password, p.MasterKey)
			if err != nil {
				return nil, err
			}
			return profile, sendAccessToken(ctx, token)
		}),
		common.CmdRecoverPassword: command(func(ctx context.Context, _ int64, p recoverParams) (any, error) {
			return nil, s.users.RecoverPassword(ctx, p.Username, p.MasterKey, p.NewPassword)
		}),
		common.CmdChangePassword: command(func(ctx context.Context, userID int64, p changePasswordParams) (any, error) {
			return nil, s.users.ChangePassword(ctx, userID, p.MasterKey, p.NewPassword)
		}),
		common.CmdDeleteUser: command(func(ctx context.Context, userID int64, _ userRef) (any, error) {
			return nil, s.users.Delete(ctx, userID)
		}),

		common.CmdInitSession: command(func(ctx context.Context, userID int64, p initSessionParams) (any, error) {
			return nil, s.users.InitSession(ctx, userID, p.MasterKey)
		}),
		common.CmdLogout: command(func(ctx context.Context, userID int64, _ userRef) (any, error) {
			s.users.Logout(ctx, userID)
			return nil, nil
		}),

		common.CmdGetUserAvatar: command(func(ctx context.Context, userID int64, _ userRef) (any, error) {
			return s.users.Avatar(ctx, userID)
		}),
		common.CmdUpdateAvatar: command(func(ctx context.Context, userID int64, p avatarParams) (any, error) {
			return nil, s.users.UpdateAvatar(ctx, userID, p.Avatar)
		}),

		common.CmdGetVaults: command(func(ctx context.Context, userID int64, _ userRef) (any, error) {
			return s.vaults.List(ctx, userID)
		}),
		common.CmdCreateVault: command(func(ctx context.Context, userID int64, p createVaultParams) (any, error) {
			return s.vaults.Create(ctx, userID, p.Name, p.Color)
		}),
		common.CmdUpdateVault: command(func(ctx context.Context, userID int64, p updateVaultParams) (any, error) {
			return nil, s.vaults.Update(ctx, userID, p.VaultID, p.Name, p.Color, p.Image)
		}),
		common.CmdUpdateVaultPosition: command(func(ctx context.Context, userID int64, p vaultPositionParams) (any, error) {
			return nil, s.vaults.UpdatePosition(ctx, userID, p.VaultID, p.NewPosition)
		}),
		common.CmdDeleteVault: command(func(ctx context.Context, userID int64, p vaultIDParams) (any, error) {
			return nil, s.vaults.Delete(ctx, userID, p.VaultID)
		}),

		common.CmdGetCollections: command(func(ctx context.Context, userID int64, _ userRef) (any, error) {
			return s.collections.List(ctx, userID)
		}),
		common.CmdCreateCollection: command(func(ctx context.Context, userID int64, p createCollectionParams) (any, error) {
			return s.collections.Create(ctx, userID, p.Name)
		}),
		common.CmdUpdateCollection: command(func(ctx context.Context, userID int64, p updateCollectionParams) (any, error) {
			return nil, s.collections.Update(ctx, userID, models.Collection{
				ID:       p.CollectionID,
				Name:     p.Name,
				VaultIDs: p.VaultIDs,
				Position: p.Position,
			})
		}),
		common.CmdDeleteCollection: command(func(ctx context.Context, userID int64, p collectionIDParams) (any, error) {
			return nil, s.collections.Delete(ctx, userID, p.CollectionID)
		}),

		common.CmdGetNotesDecrypted: command(func(ctx context.Context, userID int64, p listNotesParams) (any, error) {
			return s.notes.ListDecrypted(ctx, userID, p.VaultID)
		}),
		common.CmdCreateNote: command(func(ctx context.Context, userID int64, p createNoteParams) (any, error) {
			return s.notes.Create(ctx, userID, p.VaultID, p.Title, p.Content)
		}),
		common.CmdUpdateNote: command(func(ctx context.Context, userID int64, p updateNoteParams) (any, error) {
			return nil, s.notes.Update(ctx, userID, p.NoteID, p.Title, p.Content)
		}),
		common.CmdUpdateNotePosition: command(func(ctx context.Context, userID int64, p notePositionParams) (any, error) {
			return nil, s.notes.UpdatePosition(ctx, userID, p.NoteID, p.NewPosition)
		}),
		common.CmdDeleteNote: command(func(ctx context.Context, userID int64, p noteIDParams) (any, error) {
			return nil, s.notes.Delete(ctx, userID, p.NoteID)
		}),
	}
}

func sendAccessToken(ctx context.Context, token string) error {
	if err := grpc.SetHeader(ctx, metadata.Pairs(common.AccessTokenHeaderName, token)); err != nil {
		return fmt.Errorf("send access token: %w", err)
	}
	return nil
}

// Invoke dispatches one command envelope.
func (s *GRPCServer) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	cmd, raw, err := pb.ParseRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	handle, ok := s.handlers[cmd]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown command %q", cmd)
	}

	userID, ok := userIDFromContext(ctx)
	if !ok && !common.IsPublicCommand(cmd) {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	s.logger.Debug(ctx, "command", "command", cmd, "user_id", userID)

	result, err := handle(ctx, userID, raw)
	if err != nil {
		return nil, s.toStatus(ctx, cmd, err)
	}

	v, err := pb.NewResult(result)
	if err != nil {
		s.logger.Error(ctx, "encode result", "command", cmd, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return v, nil
}
