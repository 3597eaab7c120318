package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	pb "github.com/dmitrijs2005/vaultkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCGateway struct {
	conn        *grpc.ClientConn
	callTimeout time.Duration
	log         logging.Logger

	mu          sync.RWMutex
	accessToken string
}

// Option customises a GRPCGateway.
type Option func(*options)

type options struct {
	dialOptions []grpc.DialOption
	callTimeout time.Duration
	log         logging.Logger
}

// WithCallTimeout bounds every Call. Zero disables the per-call deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.callTimeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDialOptions appends grpc dial options (tests pass a bufconn dialer).
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

func NewGRPCGateway(target string, opts ...Option) (*GRPCGateway, error) {
	o := options{callTimeout: 15 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = logging.NewNopLogger()
	}

	g := &GRPCGateway{callTimeout: o.callTimeout, log: o.log.With("component", "gateway")}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(g.accessTokenInterceptor),
	}, o.dialOptions...)

	conn, err := grpc.NewClient(target, dial...)
	if err != nil {
		return nil, err
	}
	g.conn = conn
	return g, nil
}

func (g *GRPCGateway) AccessToken() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.accessToken
}

func (g *GRPCGateway) SetAccessToken(token string) {
	g.mu.Lock()
	g.accessToken = token
	g.mu.Unlock()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (g *GRPCGateway) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := g.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (g *GRPCGateway) Call(ctx context.Context, command string, params any, out any) error {
	g.log.Debug(ctx, "calling", "command", command)

	req, err := pb.NewRequest(command, params)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", command, ErrValidation, err)
	}

	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	var header metadata.MD
	resp := new(structpb.Value)

	err = g.conn.Invoke(ctx, pb.Gateway_Invoke_FullMethodName, req, resp, grpc.Header(&header))
	if err != nil {
		mapped := mapError(command, err)
		g.log.Error(ctx, "call failed", "command", command, "error", mapped)
		return mapped
	}

	// login and register hand out a fresh token in the response header
	if v := header.Get(common.AccessTokenHeaderName); len(v) > 0 && v[0] != "" {
		g.SetAccessToken(v[0])
	}

	if err := pb.DecodeResult(resp, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", command, err)
	}

	g.log.Debug(ctx, "success", "command", command)
	return nil
}

func (g *GRPCGateway) Close() error {
	return g.conn.Close()
}

func mapError(command string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %v", command, ErrBackendUnavailable, err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", command, err)
	}

	var kind error
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied, codes.FailedPrecondition:
		kind = ErrAuthFailure
	case codes.NotFound:
		kind = ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		kind = ErrBackendUnavailable
	case codes.InvalidArgument, codes.AlreadyExists:
		kind = ErrValidation
	default:
		return fmt.Errorf("%s: rpc error: %w", command, err)
	}
	return fmt.Errorf("%s: %w: %s", command, kind, st.Message())
}
