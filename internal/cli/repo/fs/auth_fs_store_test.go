package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenFileStore_SaveLoad_TrimsWhitespace(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "token")
	st := TokenFileStore{Path: p}
	if err := st.Save("tok-123\n\n"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	// Дозапишем вручную лишние пробелы в конец файла, чтобы проверить trim
	f, _ := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o600)
	_, _ = f.WriteString("  \r\n")
	_ = f.Close()

	tok, err := st.Load()
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if tok != "tok-123" {
		t.Fatalf("token not trimmed, got %q", tok)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm: %v", info.Mode().Perm())
	}
}

func TestTokenFileStore_Load_MissingOrEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "token")
	st := TokenFileStore{Path: p}
	// отсутствует файл
	if _, err := st.Load(); err == nil {
		t.Fatalf("expected error for missing token file")
	}
	// пустой файл
	_ = os.WriteFile(p, []byte(" \n"), 0o600)
	if _, err := st.Load(); err == nil {
		t.Fatalf("expected error for empty token file")
	}
}

func TestTokenFileStore_SaveRejectsEmpty_And_Clear(t *testing.T) {
	p := filepath.Join(t.TempDir(), "token")
	st := TokenFileStore{Path: p}
	if err := st.Save("  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if err := st.Save("tok"); err != nil {
		t.Fatal(err)
	}
	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := st.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("token file still exists")
	}
}
