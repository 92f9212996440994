// Package login registers Whisper Clip to start with the user session.
package login

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
)

const label = "com.whisperclip.app"

var ErrUnsupported = errors.New("start on login is only supported on macOS")

// passthroughEnv are forwarded so a login-launched instance finds the same
// worker and settings as the shell that enabled it.
var passthroughEnv = []string{
	"WHISPER_CLIP_PYTHON",
	"WHISPER_CLIP_REPO_ROOT",
	"WHISPER_CLIP_CONFIG",
	"WHISPER_CLIP_LOG_PATH",
}

func renderPlist(exe string, args []string, getenv func(string) string) string {
	var env strings.Builder
	for _, key := range passthroughEnv {
		if v := getenv(key); v != "" {
			fmt.Fprintf(&env, "\t\t<key>%s</key>\n\t\t<string>%s</string>\n", key, html.EscapeString(v))
		}
	}

	var argv strings.Builder
	for _, a := range append([]string{exe}, args...) {
		fmt.Fprintf(&argv, "\t\t<string>%s</string>\n", html.EscapeString(a))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
%s	</dict>
</dict>
</plist>
`, label, argv.String(), env.String())
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}
