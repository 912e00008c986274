package keyfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/saylorsolutions/wordarmor/pkg/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerator(t *testing.T) *Generator {
	gen, err := NewGenerator(SetIterations(1 << 4))
	require.NoError(t, err)
	return gen
}

func TestLockUnlock(t *testing.T) {
	var buf bytes.Buffer
	secret, err := armor.GenerateSecret()
	require.NoError(t, err)

	require.NoError(t, testGenerator(t).Lock(&buf, []byte("passphrase"), secret))
	assert.Equal(t, 2+1+8+1+1+saltLen+nonceLen+sealedLen, buf.Len())
	assert.NotContains(t, string(buf.Bytes()), string(secret[:]))

	got, err := UnlockBytes(buf.Bytes(), []byte("passphrase"))
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestUnlock_Neg(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testGenerator(t).Lock(&buf, []byte("passphrase"), armor.SecretFromUint64(69)))
	valid := buf.Bytes()

	tampered := append([]byte(nil), valid...)
	tampered[len(tampered)-1] ^= 0xff

	badIterations := append([]byte(nil), valid...)
	badIterations[3+7] = 0x03

	// Offsets follow magic, version, and iterations.
	const blockSizeOffset, cpuCostOffset = 2 + 1 + 8, 2 + 1 + 8 + 1
	hugeBlockSize := append([]byte(nil), valid...)
	hugeBlockSize[blockSizeOffset] = 0xff
	hugeCpuCost := append([]byte(nil), valid...)
	hugeCpuCost[cpuCostOffset] = 0xff
	zeroCpuCost := append([]byte(nil), valid...)
	zeroCpuCost[cpuCostOffset] = 0
	hugeMemory := append([]byte(nil), valid...)
	binary.BigEndian.PutUint64(hugeMemory[3:], 1<<30)

	tests := map[string]struct {
		data []byte
		pass string
	}{
		"Wrong passphrase": {
			data: valid,
			pass: "not the passphrase",
		},
		"Tampered": {
			data: tampered,
			pass: "passphrase",
		},
		"Truncated": {
			data: valid[:len(valid)-4],
			pass: "passphrase",
		},
		"Bad magic": {
			data: append([]byte{0, 0}, valid[2:]...),
			pass: "passphrase",
		},
		"Bad iterations": {
			data: badIterations,
			pass: "passphrase",
		},
		"Block size too high": {
			data: hugeBlockSize,
			pass: "passphrase",
		},
		"CPU cost too high": {
			data: hugeCpuCost,
			pass: "passphrase",
		},
		"CPU cost zero": {
			data: zeroCpuCost,
			pass: "passphrase",
		},
		"Memory too high": {
			data: hugeMemory,
			pass: "passphrase",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := UnlockBytes(tc.data, []byte(tc.pass))
			assert.ErrorIs(t, err, ErrInvalidKeyfile)
			t.Log(err)
		})
	}
}

func TestEmptyPassphrase(t *testing.T) {
	var buf bytes.Buffer
	err := testGenerator(t).Lock(&buf, nil, armor.SecretFromUint64(1))
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
	_, err = Unlock(&buf, nil)
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}
