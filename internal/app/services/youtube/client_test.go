package youtube

import (
	"net/url"
	"strings"
	"testing"
)

func TestAuthCodeURL_RequestsOfflineUploadAccess(t *testing.T) {
	c := New("id", "secret", "https://app.example.com/api/channel/callback")
	raw := c.AuthCodeURL("state-123")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("access_type") != "offline" {
		t.Errorf("access_type = %q, want offline", q.Get("access_type"))
	}
	if q.Get("prompt") != "consent" {
		t.Errorf("prompt = %q, want consent", q.Get("prompt"))
	}
	if !strings.Contains(q.Get("scope"), "youtube.upload") {
		t.Errorf("scope %q does not include upload", q.Get("scope"))
	}
}

func TestHasScope(t *testing.T) {
	granted := "openid https://www.googleapis.com/auth/youtube.upload email"
	if !hasScope(granted, "https://www.googleapis.com/auth/youtube.upload") {
		t.Error("expected upload scope")
	}
	if hasScope(granted, "https://www.googleapis.com/auth/youtube") {
		t.Error("prefix match must not count")
	}
}

func TestConfigured(t *testing.T) {
	if New("", "", "").Configured() {
		t.Error("empty client should not be configured")
	}
	if !New("id", "secret", "").Configured() {
		t.Error("expected configured")
	}
}
