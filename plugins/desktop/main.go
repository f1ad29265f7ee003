// Command desktop is a mudra plugin that turns gestures into keystrokes and
// media controls on macOS via AppleScript. The echo action works on any
// platform and returns the request it received.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type request struct {
	Action     string          `json:"action"`
	Gesture    string          `json:"gesture"`
	Hand       int             `json:"hand"`
	Confidence float64         `json:"confidence"`
	Timestamp  int64           `json:"timestamp"`
	Config     json.RawMessage `json:"config"`
}

type response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type keystrokeConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

type mediaConfig struct {
	Command string `json:"command"`
}

var modifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var mediaScripts = map[string]string{
	"volume-up":   `set volume output volume ((output volume of (get volume settings)) + 10)`,
	"volume-down": `set volume output volume ((output volume of (get volume settings)) - 10)`,
	"volume-mute": `set volume output muted (not (output muted of (get volume settings)))`,
	"play-pause":  `tell application "System Events" to key code 16`,
	"next":        `tell application "System Events" to key code 17`,
	"previous":    `tell application "System Events" to key code 18`,
}

func main() {
	resp := handle(os.Stdin, runAppleScript)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader, run func(string) error) response {
	var req request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return failure("failed to decode request: %v", err)
	}

	switch req.Action {
	case "echo":
		data, _ := json.Marshal(req)
		return response{Success: true, Data: data}
	case "keystroke":
		var c keystrokeConfig
		if err := decodeConfig(req.Config, &c); err != nil {
			return failure("keystroke: %v", err)
		}
		if c.Key == "" {
			return failure("keystroke: key is required")
		}
		if err := run(keystrokeScript(c.Key, c.Modifiers)); err != nil {
			return failure("keystroke: %v", err)
		}
	case "media":
		var c mediaConfig
		if err := decodeConfig(req.Config, &c); err != nil {
			return failure("media: %v", err)
		}
		script, ok := mediaScripts[c.Command]
		if !ok {
			return failure("media: unknown command %q", c.Command)
		}
		if err := run(script); err != nil {
			return failure("media: %v", err)
		}
	default:
		return failure("unknown action: %s", req.Action)
	}
	return response{Success: true}
}

func decodeConfig(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bad config: %w", err)
	}
	return nil
}

func failure(format string, args ...any) response {
	return response{Error: fmt.Sprintf(format, args...)}
}

// keystrokeScript builds the AppleScript for key with any known modifiers.
func keystrokeScript(key string, mods []string) string {
	var using []string
	for _, m := range mods {
		if as, ok := modifiers[strings.ToLower(m)]; ok {
			using = append(using, as)
		}
	}
	if len(using) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(using, ", "))
}

func runAppleScript(script string) error {
	out, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}
