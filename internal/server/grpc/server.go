// Package grpc serves the gateway command protocol: a single Invoke method
// whose envelope names a command and carries its params as a JSON object.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	pb "github.com/dmitrijs2005/vaultkeeper/internal/proto"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address     string
	users       *services.UserService
	vaults      *services.VaultService
	collections *services.CollectionService
	notes       *services.NoteService
	logger      logging.Logger
	handlers    map[string]handlerFunc
}

func NewGRPCServer(a string, l logging.Logger, us *services.UserService, vs *services.VaultService,
	cs *services.CollectionService, ns *services.NoteService) *GRPCServer {
	s := &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		users:       us,
		vaults:      vs,
		collections: cs,
		notes:       ns,
	}
	s.handlers = s.commandTable()
	return s
}

// Register attaches the gateway service to srv. The server must be created
// with Interceptor so that Invoke sees the caller's user id.
func (s *GRPCServer) Register(srv grpc.ServiceRegistrar) {
	pb.RegisterGatewayServer(srv, s)
}

func (s *GRPCServer) Interceptor() grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(s.accessTokenInterceptor)
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(s.Interceptor())
	s.Register(srv)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
