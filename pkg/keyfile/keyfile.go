package keyfile

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	bin "github.com/saylorsolutions/binmap"
	"github.com/saylorsolutions/wordarmor/pkg/armor"
	"golang.org/x/crypto/scrypt"
)

const (
	magicBytes uint16 = 0xca7f
	version    uint8  = 1
	keySize           = 256 / 8
	saltLen           = 32
	nonceLen          = 12
	sealedLen         = len(armor.Secret{}) + 16
)

var (
	ErrEmptyPassphrase = errors.New("cannot use an empty passphrase")
	ErrInvalidKeyfile  = errors.New("invalid keyfile")
)

type header struct {
	magic             uint16
	version           uint8
	iterations        uint64
	relativeBlockSize uint8
	cpuCost           uint8
	salt              [saltLen]byte
	nonce             [nonceLen]byte
	sealed            [sealedLen]byte
}

func (h *header) mapper() bin.Mapper {
	mappers := []bin.Mapper{
		bin.Int(&h.magic),
		bin.Byte(&h.version),
		bin.Int(&h.iterations),
		bin.Byte(&h.relativeBlockSize),
		bin.Byte(&h.cpuCost),
	}
	for _, field := range [][]byte{h.salt[:], h.nonce[:], h.sealed[:]} {
		for i := range field {
			mappers = append(mappers, bin.Byte(&field[i]))
		}
	}
	return bin.MapSequence(mappers...)
}

func (h *header) key(pass []byte) ([]byte, error) {
	return scrypt.Key(pass, h.salt[:], int(h.iterations), int(h.relativeBlockSize), int(h.cpuCost), keySize)
}

// Lock seals the Secret with a key derived from the passphrase, and writes the keyfile to w.
func (g *Generator) Lock(w io.Writer, pass []byte, secret armor.Secret) error {
	if len(pass) == 0 {
		return ErrEmptyPassphrase
	}
	h := &header{
		magic:             magicBytes,
		version:           version,
		iterations:        g.iterations,
		relativeBlockSize: g.relativeBlockSize,
		cpuCost:           g.cpuCost,
	}
	if _, err := rand.Read(h.salt[:]); err != nil {
		return err
	}
	if _, err := rand.Read(h.nonce[:]); err != nil {
		return err
	}
	key, err := h.key(pass)
	if err != nil {
		return err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}
	copy(h.sealed[:], gcm.Seal(nil, h.nonce[:], secret[:], nil))
	return h.mapper().Write(w, binary.BigEndian)
}

// Unlock reads a keyfile from r and recovers the Secret with the given passphrase.
// A wrong passphrase and a tampered keyfile are indistinguishable, and both return ErrInvalidKeyfile.
func Unlock(r io.Reader, pass []byte) (armor.Secret, error) {
	var secret armor.Secret
	if len(pass) == 0 {
		return secret, ErrEmptyPassphrase
	}
	h := new(header)
	if err := h.mapper().Read(r, binary.BigEndian); err != nil {
		return secret, fmt.Errorf("%w: %v", ErrInvalidKeyfile, err)
	}
	if h.magic != magicBytes {
		return secret, fmt.Errorf("%w: unrecognized header", ErrInvalidKeyfile)
	}
	if h.version != version {
		return secret, fmt.Errorf("%w: unsupported version %d", ErrInvalidKeyfile, h.version)
	}
	if err := validCost(h.iterations, h.relativeBlockSize, h.cpuCost); err != nil {
		return secret, fmt.Errorf("%w: %v", ErrInvalidKeyfile, err)
	}
	key, err := h.key(pass)
	if err != nil {
		return secret, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return secret, err
	}
	plain, err := gcm.Open(nil, h.nonce[:], h.sealed[:], nil)
	if err != nil {
		return secret, fmt.Errorf("%w: wrong passphrase or corrupted data", ErrInvalidKeyfile)
	}
	copy(secret[:], plain)
	return secret, nil
}

// UnlockBytes is a convenience for Unlock with an in-memory keyfile.
func UnlockBytes(data []byte, pass []byte) (armor.Secret, error) {
	return Unlock(bytes.NewReader(data), pass)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
