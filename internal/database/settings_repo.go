package database

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// SystemSetting represents a configuration setting stored in the database
type SystemSetting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	IsSensitive bool      `json:"is_sensitive"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VisionKeySetting holds the operator's OpenAI key
const VisionKeySetting = "vision_api_key"

// MaskedValue replaces sensitive values in output
const MaskedValue = "••••••••"

var ErrSettingNotFound = errors.New("setting not found")

// encrypt encrypts a string value
func encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts an encrypted string value
func decrypt(ciphertext string, key []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// GetSetting retrieves a single setting by key, decrypting encrypted values
func (db *DB) GetSetting(ctx context.Context, key string, encryptionKey []byte) (*SystemSetting, error) {
	var s SystemSetting
	err := db.Pool.QueryRow(ctx, `
		SELECT key, value, value_type, category, description, is_sensitive, created_at, updated_at
		FROM system_settings
		WHERE key = $1
	`, key).Scan(&s.Key, &s.Value, &s.ValueType, &s.Category, &s.Description, &s.IsSensitive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}

	if s.ValueType == "encrypted" && s.Value != "" && encryptionKey != nil {
		decrypted, err := decrypt(s.Value, encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt setting %s: %w", key, err)
		}
		s.Value = decrypted
	}

	return &s, nil
}

// GetSettingsByCategory retrieves all settings in a category with sensitive values masked
func (db *DB) GetSettingsByCategory(ctx context.Context, category string) ([]SystemSetting, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT key, value, value_type, category, description, is_sensitive, created_at, updated_at
		FROM system_settings
		WHERE category = $1
		ORDER BY key
	`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings by category: %w", err)
	}
	defer rows.Close()

	settings := []SystemSetting{}
	for rows.Next() {
		var s SystemSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.ValueType, &s.Category, &s.Description, &s.IsSensitive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if s.IsSensitive && s.Value != "" {
			s.Value = MaskedValue
		}
		settings = append(settings, s)
	}

	return settings, rows.Err()
}

// SetSetting updates an existing setting, encrypting it when its type asks for it.
// A masked value is ignored so that round-tripped output does not clobber secrets.
func (db *DB) SetSetting(ctx context.Context, key, value string, encryptionKey []byte) error {
	if value == MaskedValue {
		return nil
	}

	var valueType string
	err := db.Pool.QueryRow(ctx, `SELECT value_type FROM system_settings WHERE key = $1`, key).Scan(&valueType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSettingNotFound
		}
		return err
	}

	finalValue := value
	if valueType == "encrypted" && value != "" {
		if encryptionKey == nil {
			return errors.New("encryption key is required")
		}
		encrypted, err := encrypt(value, encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt value: %w", err)
		}
		finalValue = encrypted
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE system_settings SET value = $2, updated_at = NOW() WHERE key = $1
	`, key, finalValue)
	return err
}

// VisionKeyStore reads and writes the operator's vision key with a fixed encryption key
type VisionKeyStore struct {
	db            *DB
	encryptionKey []byte
}

// NewVisionKeyStore creates a vision key store
func NewVisionKeyStore(db *DB, encryptionKey []byte) *VisionKeyStore {
	return &VisionKeyStore{db: db, encryptionKey: encryptionKey}
}

// UserVisionKey returns the saved key, or "" when none is saved
func (s *VisionKeyStore) UserVisionKey(ctx context.Context) (string, error) {
	setting, err := s.db.GetSetting(ctx, VisionKeySetting, s.encryptionKey)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(setting.Value), nil
}

// SetUserVisionKey saves the key. An empty key clears it.
func (s *VisionKeyStore) SetUserVisionKey(ctx context.Context, key string) error {
	return s.db.SetSetting(ctx, VisionKeySetting, strings.TrimSpace(key), s.encryptionKey)
}
