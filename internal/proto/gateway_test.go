package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type vaultParams struct {
	VaultID string  `json:"vaultId"`
	Name    string  `json:"name"`
	Image   *[]byte `json:"image,omitempty"`
}

func TestRequestEnvelope(t *testing.T) {
	req, err := NewRequest("update_vault", vaultParams{VaultID: "v1", Name: "Work"})
	require.NoError(t, err)

	cmd, raw, err := ParseRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "update_vault", cmd)
	assert.JSONEq(t, `{"vaultId":"v1","name":"Work"}`, string(raw))
}

func TestRequestEnvelope_NullIsKept(t *testing.T) {
	req, err := NewRequest("update_avatar", map[string]any{"userId": 7, "avatar": nil})
	require.NoError(t, err)

	_, raw, err := ParseRequest(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":7,"avatar":null}`, string(raw))
}

func TestRequestEnvelope_NoParams(t *testing.T) {
	req, err := NewRequest("ping", nil)
	require.NoError(t, err)

	cmd, raw, err := ParseRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "ping", cmd)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestNewRequest_RejectsNonObject(t *testing.T) {
	_, err := NewRequest("x", []string{"a"})
	require.Error(t, err)
}

func TestParseRequest_Malformed(t *testing.T) {
	_, _, err := ParseRequest(nil)
	assert.ErrorIs(t, err, ErrBadEnvelope)

	s, _ := structpb.NewStruct(map[string]any{"params": map[string]any{}})
	_, _, err = ParseRequest(s)
	assert.ErrorIs(t, err, ErrBadEnvelope)

	s, _ = structpb.NewStruct(map[string]any{"command": "get_vaults", "params": "nope"})
	_, _, err = ParseRequest(s)
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestResultRoundTrip(t *testing.T) {
	type note struct {
		ID        string `json:"id"`
		CreatedAt int64  `json:"createdAt"`
		Position  int    `json:"position"`
	}

	v, err := NewResult([]note{{ID: "n1", CreatedAt: 1714000000123, Position: 2}})
	require.NoError(t, err)

	var got []note
	require.NoError(t, DecodeResult(v, &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1714000000123), got[0].CreatedAt)
	assert.Equal(t, 2, got[0].Position)

	null, err := NewResult(nil)
	require.NoError(t, err)
	var p *note
	require.NoError(t, DecodeResult(null, &p))
	assert.Nil(t, p)

	require.NoError(t, DecodeResult(v, nil))
}
