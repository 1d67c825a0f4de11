package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/claimcheck/internal/codec"
)

type sample struct {
	Metadata map[string][]byte `json:"metadata" msgpack:"metadata"`
	Data     []byte            `json:"data" msgpack:"data"`
}

func roundTrip(t *testing.T, c codec.Codec) {
	t.Helper()
	in := sample{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     []byte{0x00, 0x01, 0xFF, 'a'},
	}
	b, err := c.Marshal(&in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestMsgPack_RoundTrip(t *testing.T) {
	roundTrip(t, codec.MsgPack{})
	assert.Equal(t, "msgpack", codec.MsgPack{}.Name())
}

func TestJSON_RoundTrip(t *testing.T) {
	roundTrip(t, codec.JSON{})
	assert.Equal(t, "json", codec.JSON{}.Name())
}

func TestDefault_IsMsgPack(t *testing.T) {
	assert.Equal(t, "msgpack", codec.Default.Name())
}
