package questrade

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestTokenValid(t *testing.T) {
	cases := []struct {
		name string
		tok  *Token
		want bool
	}{
		{"nil", nil, false},
		{"no access token", &Token{ExpiresAt: time.Now().Add(time.Hour)}, false},
		{"expired", &Token{AccessToken: "at", ExpiresAt: time.Now().Add(-time.Minute)}, false},
		{"inside expiry margin", &Token{AccessToken: "at", ExpiresAt: time.Now().Add(30 * time.Second)}, false},
		{"valid", &Token{AccessToken: "at", ExpiresAt: time.Now().Add(time.Hour)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tok.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTokenStore_LoadAbsent(t *testing.T) {
	store, err := NewTokenStore(filepath.Join(t.TempDir(), "questrade.json"))
	if err != nil {
		t.Fatal(err)
	}
	tok, err := store.Load()
	if err != nil {
		t.Fatalf("Load on absent file: %v", err)
	}
	if tok != nil {
		t.Errorf("expected nil token, got %+v", tok)
	}
}

func TestTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questrade.json")
	store, err := NewTokenStore(path)
	if err != nil {
		t.Fatal(err)
	}

	want := &Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		APIServer:    "https://api01.iq.questrade.com/",
		ExpiresAt:    time.Now().Add(30 * time.Minute).Truncate(time.Second),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("token file mode = %o, want 600", perm)
		}
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken ||
		got.APIServer != want.APIServer || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestTokenStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questrade.json")
	store, err := NewTokenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete on absent file: %v", err)
	}

	if err := store.Save(&Token{RefreshToken: "rt"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("token file still present after delete")
	}
}
