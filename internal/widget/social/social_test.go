package social

import (
	"net/url"
	"reflect"
	"testing"
)

func TestSupported(t *testing.T) {
	want := []string{"apple", "facebook", "github", "google", "linkedin", "microsoft", "tiktok", "twitter", "whatsapp"}
	if got := Supported(); !reflect.DeepEqual(got, want) {
		t.Errorf("Supported = %v, want %v", got, want)
	}
}

func TestConfig_Unknown(t *testing.T) {
	if _, ok := Config("myspace", "id", "https://app.example.com/cb"); ok {
		t.Error("Config for unknown provider should report false")
	}
}

func TestAuthURLs(t *testing.T) {
	urls := AuthURLs(
		[]string{"github", "google", "apple", "myspace"},
		map[string]string{"github": "gh-client", "google": "g-client", "myspace": "x"},
		"https://app.example.com/callback",
		"state-123",
	)
	if len(urls) != 2 {
		t.Fatalf("len(urls) = %d, want 2 (%v)", len(urls), urls)
	}
	if _, ok := urls["apple"]; ok {
		t.Error("provider without client id should be skipped")
	}

	u, err := url.Parse(urls["github"])
	if err != nil {
		t.Fatalf("parse github url: %v", err)
	}
	if u.Host != "github.com" {
		t.Errorf("github host = %q, want github.com", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "gh-client" {
		t.Errorf("client_id = %q, want %q", q.Get("client_id"), "gh-client")
	}
	if q.Get("redirect_uri") != "https://app.example.com/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q, want %q", q.Get("state"), "state-123")
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q, want code", q.Get("response_type"))
	}
	if q.Get("scope") != "read:user user:email" {
		t.Errorf("scope = %q", q.Get("scope"))
	}

	g, err := url.Parse(urls["google"])
	if err != nil {
		t.Fatalf("parse google url: %v", err)
	}
	if g.Host != "accounts.google.com" {
		t.Errorf("google host = %q, want accounts.google.com", g.Host)
	}
}

func TestAuthURLs_Empty(t *testing.T) {
	if urls := AuthURLs(nil, nil, "", ""); len(urls) != 0 {
		t.Errorf("AuthURLs(nil) = %v, want empty", urls)
	}
}
