package auth

import (
	"GophDrive/internal/cli/repo"
	fsrepo "GophDrive/internal/cli/repo/fs"
	"GophDrive/internal/config"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn — токен не сохранён.
var ErrNotLoggedIn = errors.New("not logged in: run `gdcli login <token>` first")

// Store возвращает хранилище токена по пути из конфигурации.
func Store(cfg *config.Config) repo.TokenStore {
	return fsrepo.TokenFileStore{Path: cfg.TokenFile}
}

// LoadToken читает сохранённый токен.
func LoadToken(cfg *config.Config) (string, error) {
	tok, err := Store(cfg).Load()
	if err != nil {
		return "", fmt.Errorf("%w (%v)", ErrNotLoggedIn, err)
	}
	return tok, nil
}

// Owner извлекает владельца (claim sub) из токена без проверки подписи:
// секрет есть только у сервера, клиенту нужен лишь идентификатор для вывода.
func Owner(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("malformed token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
