package services

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// encryptionSalt for PBKDF2 settings key derivation
var encryptionSalt = []byte("aisle-list-settings-v1")

// DeriveEncryptionKey derives a 32-byte AES key from the JWT secret
func DeriveEncryptionKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), encryptionSalt, 100000, 32, sha256.New)
}
