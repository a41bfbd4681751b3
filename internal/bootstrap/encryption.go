package bootstrap

import (
	"log/slog"

	"github.com/target/pressqueue/internal/data/cryptoutil"
)

// CreateEncryptor creates an AES-GCM encryptor for stored site credentials.
// Hex keys of 32 bytes are used as-is; any other key is hashed down to 32 bytes.
// Returns a noop encryptor if the key is empty or invalid (with warning log).
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(key string, logger *slog.Logger) cryptoutil.Encryptor {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		logger.Warn("sites encryption key is empty, site passwords are stored unencrypted")
		return cryptoutil.NoopEncryptor{}
	}

	enc, err := cryptoutil.NewAESGCMEncryptor(cryptoutil.KeyFromString(key))
	if err != nil {
		logger.Warn("failed to create encryptor, using noop encryptor", "error", err)
		return cryptoutil.NoopEncryptor{}
	}

	return enc
}
