package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

// Watch runs the dashboard for dir until the user quits. File events on the
// state directory trigger immediate refreshes; the interval tick covers
// filesystems that do not deliver them.
func Watch(dir string, store *autopilot.FileStore, interval time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the state directory, not the file: the atomic save replaces the
	// file by rename, which drops a file-level watch. A missing state
	// directory means no run yet; fall back to tick-only refresh.
	stateDir := filepath.Dir(store.StatePath(dir))
	if _, statErr := os.Stat(stateDir); statErr == nil {
		defer watcher.Close()
		if err := watcher.Add(stateDir); err != nil {
			return fmt.Errorf("watch state directory: %w", err)
		}
	} else {
		watcher.Close()
		watcher = nil
	}

	p := tea.NewProgram(NewModel(dir, store, interval, watcher), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
