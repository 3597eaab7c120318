// Package proto defines the single-method gRPC service that carries the
// gateway command protocol:
//
//	rpc Invoke(google.protobuf.Struct) returns (google.protobuf.Value)
//
// The request struct has two fields, "command" (string) and "params"
// (object). The response value is the command's JSON result, or null.
// Messages are well-known protobuf types, so no generated code is needed.
package proto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName                   = "vaultkeeper.gateway.v1.Gateway"
	InvokeMethodName              = "Invoke"
	Gateway_Invoke_FullMethodName = "/" + ServiceName + "/" + InvokeMethodName

	fieldCommand = "command"
	fieldParams  = "params"
)

var ErrBadEnvelope = errors.New("malformed command envelope")

// GatewayServer is implemented by the gateway's command dispatcher.
type GatewayServer interface {
	Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Value, error)
}

func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&Gateway_ServiceDesc, srv)
}

func _Gateway_Invoke_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GatewayServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Gateway_Invoke_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GatewayServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var Gateway_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: InvokeMethodName,
			Handler:    _Gateway_Invoke_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vaultkeeper/gateway/v1/gateway.proto",
}

// NewRequest builds the envelope for command. params may be any value that
// encodes to a JSON object (a struct or a map), or nil.
func NewRequest(command string, params any) (*structpb.Struct, error) {
	fields := map[string]any{fieldCommand: command}

	if params != nil {
		m, err := toJSONObject(params)
		if err != nil {
			return nil, fmt.Errorf("encode params for %s: %w", command, err)
		}
		fields[fieldParams] = m
	}

	return structpb.NewStruct(fields)
}

// ParseRequest splits an envelope into the command name and its params as
// raw JSON. Missing params decode as an empty object.
func ParseRequest(req *structpb.Struct) (string, json.RawMessage, error) {
	if req == nil {
		return "", nil, ErrBadEnvelope
	}
	cmd, ok := req.GetFields()[fieldCommand]
	if !ok || cmd.GetStringValue() == "" {
		return "", nil, fmt.Errorf("%w: missing command", ErrBadEnvelope)
	}

	params := req.GetFields()[fieldParams]
	if params == nil {
		return cmd.GetStringValue(), json.RawMessage("{}"), nil
	}
	if params.GetStructValue() == nil {
		return "", nil, fmt.Errorf("%w: params must be an object", ErrBadEnvelope)
	}

	raw, err := json.Marshal(params.GetStructValue().AsMap())
	if err != nil {
		return "", nil, err
	}
	return cmd.GetStringValue(), raw, nil
}

// NewResult encodes a command result. A nil result becomes JSON null.
func NewResult(v any) (*structpb.Value, error) {
	if v == nil {
		return structpb.NewNullValue(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}

// DecodeResult unmarshals a result value into out. A nil out discards it.
func DecodeResult(v *structpb.Value, out any) error {
	if out == nil || v == nil {
		return nil
	}
	b, err := json.Marshal(v.AsInterface())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func toJSONObject(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("params must encode to a JSON object: %w", err)
	}
	return m, nil
}
