package google

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestHasTokenForAccount_EmptyAccount(t *testing.T) {
	if HasTokenForAccount("") {
		t.Error("expected false for empty account name")
	}
}

func TestTokenFileForAccount(t *testing.T) {
	defaultFile := tokenFileForAccount("default")
	if !strings.HasSuffix(defaultFile, "google.token") {
		t.Errorf("default account should use google.token, got %s", defaultFile)
	}

	emptyFile := tokenFileForAccount("")
	if emptyFile != defaultFile {
		t.Errorf("empty account should map to the default token file")
	}

	workFile := tokenFileForAccount("work")
	if !strings.HasSuffix(workFile, "google-work.token") {
		t.Errorf("named account should use google-<account>.token, got %s", workFile)
	}
	if workFile == defaultFile {
		t.Error("named account must not collide with the default token file")
	}
}

func TestGetOAuthConfig(t *testing.T) {
	conf := GetOAuthConfig()
	if conf == nil {
		t.Fatal("GetOAuthConfig returned nil")
	}
	if len(conf.Scopes) == 0 {
		t.Error("OAuth config should include scopes")
	}
}

func TestDefaultOAuthScopes(t *testing.T) {
	required := []string{
		"https://www.googleapis.com/auth/calendar",
		"https://www.googleapis.com/auth/gmail.send",
		"https://www.googleapis.com/auth/contacts.readonly",
	}
	for _, scope := range required {
		found := false
		for _, s := range DefaultOAuthScopes {
			if s == scope {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("required scope %s missing from DefaultOAuthScopes", scope)
		}
	}
}

func TestGetAuthURL(t *testing.T) {
	url := GetAuthURL()
	if !strings.HasPrefix(url, "https://") {
		t.Errorf("auth URL should be https, got %s", url)
	}
}

func TestGetAuthURLForAccount_CarriesAccountState(t *testing.T) {
	url := GetAuthURLForAccount("work")
	if !strings.Contains(url, "state=work") {
		t.Errorf("auth URL should carry the account in the state parameter, got %s", url)
	}
}

func TestHasToken(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("token cache path test relies on XDG_CACHE_HOME")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if HasToken() {
		t.Error("expected no token in a fresh cache dir")
	}

	tokenFile := tokenFileForAccount("default")
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tokenFile, []byte("access refresh"), 0600); err != nil {
		t.Fatal(err)
	}

	if !HasToken() {
		t.Error("expected HasToken to see the written token file")
	}
}

func TestNewFileTokenProvider(t *testing.T) {
	provider := NewFileTokenProvider()
	if provider == nil {
		t.Fatal("NewFileTokenProvider returned nil")
	}
	// No token saved for this account name in the test environment
	if provider.HasTokenForAccount("nonexistent-test-account") {
		t.Error("expected no token for nonexistent account")
	}
}
