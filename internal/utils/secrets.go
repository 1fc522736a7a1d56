package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir - куда docker монтирует secrets.
const DefaultSecretsDir = "/run/secrets"

// ErrSecretNotFound возвращается, когда секрета нет ни в файле, ни в окружении.
var ErrSecretNotFound = errors.New("secret not found")

// ReadSecret читает docker secret из dir/<name>.
func ReadSecret(dir, name string) (string, error) {
	if dir == "" {
		dir = DefaultSecretsDir
	}
	filePath := filepath.Join(dir, name)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ResolveSecret сначала смотрит в secret-файл, затем в переменную окружения envKey.
// Для локального запуска без docker достаточно .env.
func ResolveSecret(dir, name, envKey string) (string, error) {
	if secret, err := ReadSecret(dir, name); err == nil {
		return secret, nil
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s (file %s or env %s)", ErrSecretNotFound, name, filepath.Join(dir, name), envKey)
}
