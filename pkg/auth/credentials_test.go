package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Username:     "testuser",
		Password:     "hunter2hunter2",
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected one listed account, got %d", len(accounts))
	}

	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("testuser"); err == nil {
		t.Error("Expected error retrieving deleted account")
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsEmptyUsername(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Password: "secret"}); err == nil {
		t.Error("Expected error storing account without username")
	}
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = ErrStoreUnavailable
	broken.RetrieveError = ErrStoreUnavailable
	working := NewMockStore()

	manager := NewMockManagerWithStores(broken, working)

	account := &Account{Username: "fallback", Password: "secret"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store via fallback: %v", err)
	}

	retrieved, err := manager.Retrieve("fallback")
	if err != nil {
		t.Fatalf("Failed to retrieve via fallback: %v", err)
	}
	if retrieved.Username != "fallback" {
		t.Errorf("Unexpected username: %s", retrieved.Username)
	}
	if working.Count() != 1 {
		t.Errorf("Expected account in working store, count is %d", working.Count())
	}
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XTRACTOR_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	account := &Account{Username: "alice", Password: "correct horse", LastModified: time.Now()}
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	// The file must not contain the password in the clear
	content, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to read store file: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("Store file is empty")
	}
	if strings.Contains(string(content), account.Password) {
		t.Error("Password appears in plaintext")
	}

	retrieved, err := store.Retrieve("alice")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch after round trip: got %s", retrieved.Password)
	}

	if err := store.Delete("alice"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if store.Exists("alice") {
		t.Error("Account should not exist after deletion")
	}
}

func TestEnvironmentStoreRetrieve(t *testing.T) {
	t.Setenv("XTRACTOR_USERNAME", "envuser")
	t.Setenv("XTRACTOR_PASSWORD", "envpass")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if account.Username != "envuser" || account.Password != "envpass" {
		t.Errorf("Unexpected account: %+v", account)
	}

	if _, err := store.Retrieve("someoneelse"); err == nil {
		t.Error("Expected error for mismatched username")
	}

	if err := store.Store(account); err != ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable from Store, got %v", err)
	}
}
