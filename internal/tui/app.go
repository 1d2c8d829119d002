package tui

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/crewhq/crew/internal/mailbox"
	"github.com/crewhq/crew/internal/roster"
	"github.com/crewhq/crew/internal/task"
	"github.com/crewhq/crew/internal/team"
)

// App wraps the Bubbletea program
type App struct {
	program  *tea.Program
	model    Model
	engine   *roster.Engine
	teamName string
}

// New creates a dashboard application for one team.
func New(engine *roster.Engine, teamName string) *App {
	return &App{
		model:    NewModel(engine, teamName),
		engine:   engine,
		teamName: teamName,
	}
}

// Run starts the dashboard and blocks until the user quits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Forward termination signals as a quit so the terminal is restored
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		if a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	// Watch the team's files so edits made by agents in other processes
	// show up without waiting for the tick. The tick still runs; a lost
	// or unsupported watch degrades to polling.
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if watcher, err := newStoreWatcher(a.engine.Root(), a.teamName); err == nil {
		go watcher.run(stopWatch, func() {
			a.program.Send(storeChangedMsg{})
		})
	}

	_, err := a.program.Run()
	return err
}

// storeWatcher debounces file events from the directories a team's
// state lives in.
type storeWatcher struct {
	watcher *fsnotify.Watcher
}

// newStoreWatcher watches the team's config directory, its inboxes, and
// its task directory. fsnotify works better with directories than with
// files that are atomically replaced, since renames retarget the inode
// a file watch is bound to.
func newStoreWatcher(root, teamName string) (*storeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := []string{
		team.Dir(root, teamName),
		mailbox.Dir(root, teamName),
		task.Dir(root, teamName),
	}
	added := 0
	for _, dir := range dirs {
		// The inboxes directory may not exist until the first send.
		if err := watcher.Add(dir); err == nil {
			added++
		}
	}
	if added == 0 {
		_ = watcher.Close()
		return nil, os.ErrNotExist
	}
	return &storeWatcher{watcher: watcher}, nil
}

// run forwards debounced change notifications until stop closes.
func (w *storeWatcher) run(stop <-chan struct{}, notify func()) {
	defer func() { _ = w.watcher.Close() }()

	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	for {
		select {
		case <-stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Debounce to avoid a refresh per rename in a burst of writes
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			notify()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
