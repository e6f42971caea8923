package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilefield/server/models"
)

func TestValidatorAcceptsWellFormedPayloads(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cases := map[MessageType]string{
		MessageTypeLogin: `{"username":"ada","world":"overworld"}`,
		MessageTypeMove:  `{"direction":"southwest"}`,
		MessageTypeView:  `{"radius_x":3,"radius_y":-1,"center":{"x":-40,"y":12}}`,
		MessageTypeProbe: `{"x":-2147483648,"y":2147483647}`,
	}
	for typ, payload := range cases {
		assert.NoError(t, v.Validate(typ, json.RawMessage(payload)), typ)
	}
}

func TestValidatorRejectsMalformedPayloads(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cases := []struct {
		typ     MessageType
		payload string
	}{
		{MessageTypeLogin, `{}`},
		{MessageTypeLogin, `{"username":""}`},
		{MessageTypeMove, `{"direction":"up"}`},
		{MessageTypeView, `{"radius_x":1.5,"radius_y":1}`},
		{MessageTypeView, `{"radius_x":1}`},
		{MessageTypeView, `{"radius_x":1,"radius_y":1,"center":{"x":1}}`},
		{MessageTypeProbe, `{"x":"1","y":2}`},
		{MessageTypeProbe, `{"x":1,"y":2,"z":3}`},
		{MessageTypeProbe, `not json`},
		{MessageTypeView, `{"radius_x":0,"radius_y":-9223372036854775808}`},
		{MessageTypeView, `{"radius_x":2147483648,"radius_y":0}`},
		{MessageTypeView, `{"radius_x":1,"radius_y":1,"center":{"x":9223372036854775807,"y":0}}`},
		{MessageTypeView, `{"radius_x":1,"radius_y":1,"center":{"x":0,"y":-2147483649}}`},
		{MessageTypeProbe, `{"x":1e18,"y":0}`},
	}
	for _, tc := range cases {
		assert.Error(t, v.Validate(tc.typ, json.RawMessage(tc.payload)), "%s %s", tc.typ, tc.payload)
	}
}

func TestValidatorMissingPayloadIsEmptyObject(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.Error(t, v.Validate(MessageTypeMove, nil))
}

func TestValidatorKnownTypes(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.True(t, v.Known(MessageTypeLogin))
	assert.True(t, v.Known(MessageTypeProbe))
	assert.False(t, v.Known(MessageTypeTiles))
	assert.False(t, v.Known("chat"))
	assert.Error(t, v.Validate("chat", json.RawMessage(`{}`)))
}

func TestTilesMessageEncodesTerrainNames(t *testing.T) {
	msg := BaseMessage{
		Type: MessageTypeTiles,
		Payload: TilesMessage{
			World: "overworld",
			Rows:  [][]models.TerrainKind{{models.TerrainWater, models.TerrainMountain}},
		},
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"rows":[["water","mountain"]]`)
	assert.Contains(t, string(raw), `"type":"tiles"`)
}
