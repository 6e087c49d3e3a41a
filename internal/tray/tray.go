// Package tray provides the system tray menu for the soundwave controller.
package tray

import (
	"fmt"
	"math"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/soundwave/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onMode     func(mode gesture.Mode)
	onSettings func()
	onQuit     func()
	enabled    bool
	mode       gesture.Mode
	last       gesture.Result
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
	menuVolume *systray.MenuItem
	menuMode   *systray.MenuItem
}

// New creates a new Tray with the given initial state.
func New(enabled bool, mode gesture.Mode) *Tray {
	return &Tray{
		enabled: enabled,
		mode:    mode,
		last:    gesture.Result{Status: gesture.StatusNoHandDetected, Mode: mode},
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnMode sets the callback called when the user switches control mode.
func (t *Tray) OnMode(fn func(mode gesture.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	t.mu.Lock()
	systray.SetTitle("Soundwave")
	systray.SetTooltip("Soundwave hand gesture volume control")

	t.menuToggle = systray.AddMenuItem(enabledTitle(t.enabled), "Toggle gesture control")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.last), "Hand tracking status")
	t.menuStatus.Disable()
	t.menuVolume = systray.AddMenuItem(volumeTitle(t.last), "Current volume")
	t.menuVolume.Disable()
	systray.AddSeparator()

	t.menuMode = systray.AddMenuItem(modeTitle(t.mode), "Switch between rotate and point control")
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Soundwave")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuMode.ClickedCh:
				t.handleMode()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(enabledTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleMode flips between continuous and discrete control.
func (t *Tray) handleMode() {
	t.mu.Lock()
	if t.mode == gesture.ModeDiscrete {
		t.mode = gesture.ModeContinuous
	} else {
		t.mode = gesture.ModeDiscrete
	}
	mode := t.mode
	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(mode))
	}
	callback := t.onMode
	t.mu.Unlock()

	if callback != nil {
		callback(mode)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update refreshes the status and volume lines from a tick result.
func (t *Tray) Update(r gesture.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = r
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(r))
	}
	if t.menuVolume != nil {
		t.menuVolume.SetTitle(volumeTitle(r))
	}
}

// Watch applies results until the channel closes.
func (t *Tray) Watch(results <-chan gesture.Result) {
	for r := range results {
		t.Update(r)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Mode returns the mode shown in the menu.
func (t *Tray) Mode() gesture.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

func enabledTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func statusTitle(r gesture.Result) string {
	if r.Status != gesture.StatusHandDetected {
		return "Show your hand"
	}
	if r.Mode == gesture.ModeDiscrete && r.Direction != "" {
		return fmt.Sprintf("Hand detected (%s)", r.Direction)
	}
	return "Hand detected"
}

func volumeTitle(r gesture.Result) string {
	return fmt.Sprintf("Volume: %d%%", int(math.Round(r.Volume)))
}

func modeTitle(mode gesture.Mode) string {
	if mode == gesture.ModeDiscrete {
		return "Mode: Point (switch to Rotate)"
	}
	return "Mode: Rotate (switch to Point)"
}
