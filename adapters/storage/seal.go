package storage

import (
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const sealFormatVersion = 1

// ErrWrongPassphrase is returned when a sealed document cannot be opened
var ErrWrongPassphrase = stderrors.New("wrong passphrase or corrupted storage")

// scrypt cost parameters
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

type sealedBlob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// seal derives a fresh key from passphrase and a random salt and encrypts
// raw. The nonce is zero; the per-write salt makes every key unique.
func seal(passphrase string, raw []byte) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	return json.Marshal(sealedBlob{
		V:      sealFormatVersion,
		Salt:   salt[:],
		N:      scryptN,
		R:      scryptR,
		P:      scryptP,
		Cipher: aead.Seal(nil, nonce[:], raw, salt[:]),
	})
}

func open(passphrase string, data []byte) ([]byte, error) {
	var b sealedBlob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("malformed sealed document: %w", err)
	}
	if b.V > sealFormatVersion {
		return nil, fmt.Errorf("unsupported sealed format version %d", b.V)
	}
	key, err := scrypt.Key([]byte(passphrase), b.Salt, b.N, b.R, b.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	raw, err := aead.Open(nil, nonce[:], b.Cipher, b.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}
