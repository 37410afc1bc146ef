package signature

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Layout(t *testing.T) {
	rHex := strings.Repeat("ab", 32)
	sHex := strings.Repeat("cd", 32)

	tests := []struct {
		name   string
		prefix string
		want   byte
	}{
		{name: "zero prefix", prefix: "00", want: 0x00},
		{name: "even y prefix", prefix: "02", want: 0x02},
		{name: "odd y prefix", prefix: "03", want: 0x03},
		{name: "upper case hex", prefix: "1F", want: 0x1f},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Encode(tt.prefix+rHex, sHex)
			require.NoError(t, err)

			assert.Len(t, sig, Size)
			assert.Equal(t, bytes.Repeat([]byte{0xab}, 32), sig.R())
			assert.Equal(t, bytes.Repeat([]byte{0xcd}, 32), sig.S())
			assert.Equal(t, tt.want, sig.V())
			assert.Equal(t, tt.want, sig[64])
		})
	}
}

func TestEncode_DistinctComponentsNotTransposed(t *testing.T) {
	r := make([]byte, 32)
	s := make([]byte, 32)
	for i := range r {
		r[i] = byte(i)
		s[i] = byte(0xff - i)
	}

	sig, err := Encode("03"+hex.EncodeToString(r), hex.EncodeToString(s))
	require.NoError(t, err)

	assert.Equal(t, r, sig[:32])
	assert.Equal(t, s, sig[32:64])
	assert.Equal(t, byte(0x03), sig[64])
}

func TestEncode_Malformed(t *testing.T) {
	validR := "02" + strings.Repeat("11", 32)
	validS := strings.Repeat("22", 32)

	tests := []struct {
		name string
		bigR string
		s    string
	}{
		{name: "empty big_r", bigR: "", s: validS},
		{name: "prefix only", bigR: "02", s: validS},
		{name: "non hex prefix", bigR: "zz" + strings.Repeat("11", 32), s: validS},
		{name: "non hex coordinate", bigR: "02" + strings.Repeat("g1", 32), s: validS},
		{name: "short coordinate", bigR: "02" + strings.Repeat("11", 31), s: validS},
		{name: "long coordinate", bigR: "02" + strings.Repeat("11", 33), s: validS},
		{name: "odd length coordinate", bigR: validR + "1", s: validS},
		{name: "short s", bigR: validR, s: strings.Repeat("22", 31)},
		{name: "non hex s", bigR: validR, s: strings.Repeat("x2", 32)},
		{name: "empty s", bigR: validR, s: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Encode(tt.bigR, tt.s)
			assert.ErrorIs(t, err, ErrMalformedSignatureComponent)
			assert.Equal(t, Secp256k1{}, sig)
		})
	}
}

func TestHashPayload(t *testing.T) {
	// sha256("abc")
	want, _ := hex.DecodeString("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")

	got := HashPayload([]byte("abc"))
	assert.Equal(t, want, got[:])
	assert.Equal(t, got, HashPayload([]byte("abc")))
	assert.NotEqual(t, got, HashPayload([]byte("abd")))
}
