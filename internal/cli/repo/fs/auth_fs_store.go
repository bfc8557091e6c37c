package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// TokenFileStore — файловое хранилище auth-токена CLI (путь из TOKEN_FILE).
type TokenFileStore struct {
	Path string
}

// Save сохраняет auth‑токен в файл с правами 0600.
func (s TokenFileStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if s.Path == "" {
		return errors.New("token file path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Load читает auth‑токен из файла.
func (s TokenFileStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", errors.New("empty token file")
	}
	return tok, nil
}

// Clear удаляет файл токена; отсутствие файла не ошибка.
func (s TokenFileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
