package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageChange_UnmarshalJSON(t *testing.T) {
	type params struct {
		Image ImageChange `json:"image"`
	}

	var missing params
	require.NoError(t, json.Unmarshal([]byte(`{}`), &missing))
	assert.False(t, missing.Image.Present)
	assert.False(t, missing.Image.Remove())
	assert.False(t, missing.Image.Set())

	var removed params
	require.NoError(t, json.Unmarshal([]byte(`{"image":null}`), &removed))
	assert.True(t, removed.Image.Remove())
	assert.False(t, removed.Image.Set())

	var set params
	require.NoError(t, json.Unmarshal([]byte(`{"image":"AQID"}`), &set))
	assert.True(t, set.Image.Set())
	assert.Equal(t, []byte{1, 2, 3}, set.Image.Data)

	var bad params
	require.Error(t, json.Unmarshal([]byte(`{"image":"!!"}`), &bad))
	require.Error(t, json.Unmarshal([]byte(`{"image":42}`), &bad))
	require.Error(t, json.Unmarshal([]byte(`{"image":""}`), &bad))
}

func TestUser_SecretsStayOffTheWire(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Username: "alice", PasswordHash: "h", MasterKeyHash: "m", KeySalt: []byte("s")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"username":"alice"}`, string(b))
}
