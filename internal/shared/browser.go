package shared

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the argv that opens rawURL on goos.
//
// $BROWSER wins when set, so headless machines can point it at a script or at "echo".
func browserCommand(goos, rawURL string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: refusing to open %q", ErrInvalidArgument, rawURL)
	}

	if b := strings.TrimSpace(os.Getenv("BROWSER")); b != "" {
		return append(strings.Fields(b), rawURL), nil
	}

	switch goos {
	case "darwin":
		return []string{"open", rawURL}, nil
	case "linux", "freebsd", "openbsd":
		return []string{"xdg-open", rawURL}, nil
	case "windows":
		// the empty argument is the window title start expects before the target
		return []string{"cmd", "/c", "start", "", rawURL}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser shows an http(s) URL, such as the Google consent page, in the system browser.
func OpenBrowser(rawURL string) error {
	argv, err := browserCommand(getRuntime(), rawURL)
	if err != nil {
		return err
	}

	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
