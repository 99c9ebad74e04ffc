package middleware

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

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
)

// encryptedMarker prefixes the sealed payload stored in place of the actions.
const encryptedMarker = "__encrypted__:"

// ErrNotEncrypted is returned when a stored macro lacks the sealed envelope.
var ErrNotEncrypted = errors.New("macro is missing encrypted data envelope")

// EncryptionConfig holds the macro store keys.
type EncryptionConfig struct {
	// ActiveKey seals every Put. It must be 32 bytes (AES-256).
	ActiveKey []byte

	// FallbackKeys are retired keys still accepted when opening macros
	// sealed before a rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.MacroStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals macro actions with
// AES-GCM. Triggers stay in clear text because stores key on them.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.MacroStore) ports.MacroStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

// DecodeKey parses a base64 encoded AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (m *encryptionMiddleware) Put(ctx context.Context, userID string, macro domain.Macro) error {
	plainText, err := domain.EncodeIntents(macro.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt macro: %w", err)
	}

	envelope := domain.Macro{
		Trigger:   macro.Trigger,
		CreatedAt: macro.CreatedAt,
		Actions:   []domain.Intent{domain.Unknown{RawText: encryptedMarker + base64.StdEncoding.EncodeToString(ciphertext)}},
	}
	return m.next.Put(ctx, userID, envelope)
}

func (m *encryptionMiddleware) Get(ctx context.Context, userID, trigger string) (domain.Macro, error) {
	envelope, err := m.next.Get(ctx, userID, trigger)
	if err != nil {
		return domain.Macro{}, err
	}
	return m.open(envelope)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, userID, trigger string) error {
	return m.next.Delete(ctx, userID, trigger)
}

func (m *encryptionMiddleware) List(ctx context.Context, userID string) ([]domain.Macro, error) {
	envelopes, err := m.next.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Macro, 0, len(envelopes))
	for _, env := range envelopes {
		macro, err := m.open(env)
		if err != nil {
			return nil, err
		}
		out = append(out, macro)
	}
	return out, nil
}

func (m *encryptionMiddleware) open(envelope domain.Macro) (domain.Macro, error) {
	sealed, ok := sealedPayload(envelope)
	if !ok {
		// Fail secure: plain macros written before encryption was enabled are refused.
		return domain.Macro{}, fmt.Errorf("%w: %q", ErrNotEncrypted, envelope.Trigger)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return domain.Macro{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Macro{}, fmt.Errorf("failed to decrypt macro %q: %w", envelope.Trigger, err)
	}

	actions, err := domain.DecodeIntents(plainText)
	if err != nil {
		return domain.Macro{}, fmt.Errorf("failed to unmarshal decrypted macro: %w", err)
	}
	return domain.Macro{Trigger: envelope.Trigger, Actions: actions, CreatedAt: envelope.CreatedAt}, nil
}

func sealedPayload(m domain.Macro) (string, bool) {
	if len(m.Actions) != 1 {
		return "", false
	}
	u, ok := m.Actions[0].(domain.Unknown)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(u.RawText, encryptedMarker)
}


func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}

