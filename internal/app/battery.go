// Package app: battery-backed PRG RAM persistence.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// batteryAutosaveInterval is how often the running cartridge's battery RAM
// is flushed to disk while the application is running, independent of the
// slot-based save states in states.go.
const batteryAutosaveInterval = 10 * time.Second

// batteryFilePath returns the .sav sibling of romPath, the same name real
// NES emulators use for battery-backed PRG RAM.
func batteryFilePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return romPath[:len(romPath)-len(ext)] + ".sav"
}

// loadBatteryRAM restores a cartridge's battery RAM from its .sav file, if
// one exists. A missing file is not an error: it just means this ROM has
// never been saved to before.
func (app *Application) loadBatteryRAM() error {
	if app.cartridge == nil || !app.cartridge.HasBattery() {
		return nil
	}

	data, err := os.ReadFile(batteryFilePath(app.romPath))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read battery RAM: %v", err)
	}

	dst := app.cartridge.BatteryRAM()
	n := copy(dst, data)
	if n < len(dst) {
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
	}
	return nil
}

// saveBatteryRAM writes the cartridge's current battery RAM to its .sav
// file. A no-op for cartridges without battery backing.
func (app *Application) saveBatteryRAM() error {
	if app.cartridge == nil || !app.cartridge.HasBattery() {
		return nil
	}

	path := batteryFilePath(app.romPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %v", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, app.cartridge.BatteryRAM(), 0644); err != nil {
		return fmt.Errorf("failed to write battery RAM: %v", err)
	}
	return os.Rename(tmp, path)
}

// runBatteryAutosave ticks until ctx is cancelled, flushing battery RAM to
// disk periodically, then performs one final flush on the way out so a
// battery cartridge never loses more than batteryAutosaveInterval worth of
// progress when the application shuts down.
func (app *Application) runBatteryAutosave(ctx context.Context) error {
	ticker := time.NewTicker(batteryAutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return app.saveBatteryRAM()
		case <-ticker.C:
			if err := app.saveBatteryRAM(); err != nil && app.config.Debug.EnableLogging {
				log.Printf("battery autosave failed: %v", err)
			}
		}
	}
}
