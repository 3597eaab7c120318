package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	pb "github.com/dmitrijs2005/vaultkeeper/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errForeignUser = errors.New("userId does not match the access token")

// toStatus maps service errors onto gRPC codes. Unclassified errors are
// logged and reported as Internal without their detail.
func (s *GRPCServer) toStatus(ctx context.Context, command string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, pb.ErrBadEnvelope):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrorAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrorNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		code = codes.Unauthenticated
	case errors.Is(err, errForeignUser):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrSessionNotInitialized):
		code = codes.FailedPrecondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		s.logger.Error(ctx, "command failed", "command", command, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
