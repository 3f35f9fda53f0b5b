package tui

import (
	"errors"
	"strings"
	"testing"
)

func stubLaunch(t *testing.T) *[]string {
	t.Helper()
	var got []string
	orig := openBrowser
	openBrowser = func(u string) error {
		got = append(got, u)
		return nil
	}
	t.Cleanup(func() { openBrowser = orig })
	return &got
}

func TestOpenURLRejectsNonHTTP(t *testing.T) {
	launched := stubLaunch(t)
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		err := OpenURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("OpenURL(%q): err = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
	if len(*launched) != 2 {
		t.Errorf("only http(s) URLs should reach the browser, got %v", *launched)
	}
}

func TestOpenURLPassesURLThrough(t *testing.T) {
	got := stubLaunch(t)
	if err := OpenURL("https://www.anthropic.com/research"); err != nil {
		t.Fatalf("OpenURL: %v", err)
	}
	if len(*got) != 1 || (*got)[0] != "https://www.anthropic.com/research" {
		t.Errorf("launched %v", *got)
	}
}

func TestOpenURLWrapsLaunchError(t *testing.T) {
	orig := openBrowser
	openBrowser = func(string) error { return errors.New("no opener") }
	t.Cleanup(func() { openBrowser = orig })

	err := OpenURL("https://docs.anthropic.com/en/home")
	if err == nil || !strings.Contains(err.Error(), "docs.anthropic.com") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
