package domainkey

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://a.com/1", "https://a.com"},
		{"https://a.com/deep/path?q=1#frag", "https://a.com"},
		{"http://a.com/", "http://a.com"},
		{"HTTPS://A.COM/x", "https://a.com"},
		{"https://sub.a.com/x", "https://sub.a.com"},
		{"https://a.com:8080/x", "https://a.com:8080"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.input)
		if err != nil {
			t.Errorf("Normalize(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizePathInvariance(t *testing.T) {
	a, err := Normalize("https://a.com/docs/x")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize("https://a.com/other?page=2")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("keys differ for same host: %q vs %q", a, b)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, input := range []string{"", "not a url at all", "/relative/path", "a.com/no-scheme", "https://"} {
		_, err := Normalize(input)
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Normalize(%q) err = %v, want ErrInvalidURL", input, err)
		}
	}
}

func TestNormalizeExcludedSchemes(t *testing.T) {
	for _, input := range []string{
		"moz-extension://abc123/popup.html",
		"chrome://settings",
		"chrome-extension://xyz/page.html",
	} {
		_, err := Normalize(input)
		if !errors.Is(err, ErrExcludedScheme) {
			t.Errorf("Normalize(%q) err = %v, want ErrExcludedScheme", input, err)
		}
	}
}

func TestIsDomain(t *testing.T) {
	if !IsDomain("https://a.com") {
		t.Error("https://a.com should be a domain")
	}
	if IsDomain("a.com") {
		t.Error("a.com has no scheme separator")
	}
}
