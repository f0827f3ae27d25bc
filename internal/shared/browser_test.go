package shared

import (
	"errors"
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	t.Setenv("BROWSER", "")

	tests := []struct {
		name string
		goos string
		url  string
		want []string
	}{
		{"macOS", "darwin", "https://accounts.google.com/o/oauth2/auth", []string{"open", "https://accounts.google.com/o/oauth2/auth"}},
		{"linux", "linux", "http://localhost:8080", []string{"xdg-open", "http://localhost:8080"}},
		{"windows", "windows", "http://localhost:8080", []string{"cmd", "/c", "start", "", "http://localhost:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := browserCommand(tt.goos, tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("rejects non-web URLs", func(t *testing.T) {
		for _, u := range []string{"file:///etc/passwd", "localhost:8080", "https://", "::"} {
			if _, err := browserCommand("linux", u); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got %v", u, err)
			}
		}
	})

	t.Run("BROWSER overrides the platform opener", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox --new-tab")
		got, err := browserCommand("plan9", "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"firefox", "--new-tab", "https://example.com"}) {
			t.Errorf("unexpected argv %v", got)
		}
	})
}

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	t.Setenv("BROWSER", "")
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("http://localhost"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
