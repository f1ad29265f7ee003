// Package tray provides the system tray menu for the Mudra recognizer.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/log"
)

// Tray is the menu bar icon with its toggle, last-gesture and quit items.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	last     string
	mu       sync.RWMutex

	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled}
}

// OnToggle sets the callback run when the user flips the enabled item.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run by "Open Dashboard...".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit and must be called from the
// main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Hand Gestures")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuOpen.ClickedCh:
				t.open()
			case <-menuQuit.ClickedCh:
				t.quit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	log.Debug("tray toggle", "enabled", enabled)
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) open() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (t *Tray) quit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

// SetEnabled reflects a state change made elsewhere, such as the HTTP API.
// It does not run the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = name
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(name))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// LastGesture returns the name shown in the last-gesture item.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
