package tasks

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/repoforge/repomaker/repomaker/apk"
	"github.com/sirupsen/logrus"
)

// Watcher schedules a repo update whenever package files change in its
// directory. Events are debounced per repo so a batch of copied files
// triggers a single update.
type Watcher struct {
	logger   *logrus.Logger
	queue    *Queue
	debounce time.Duration

	fw   *fsnotify.Watcher
	dirs map[string]string // watched dir -> repo name

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
}

func NewWatcher(queue *Queue, logger *logrus.Logger, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		logger:   logger,
		queue:    queue,
		debounce: debounce,
		fw:       fw,
		dirs:     make(map[string]string),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// WatchRepo adds a repo's package directory to the watch list.
func (w *Watcher) WatchRepo(repoName, dir string) error {
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[filepath.Clean(dir)] = repoName
	w.logger.WithFields(logrus.Fields{
		"repo": repoName,
		"dir":  dir,
	}).Info("Watching for package changes")
	return nil
}

// Start consumes filesystem events until Stop is called.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()

	return w.fw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	if !apk.IsPackageFile(event.Name) {
		return
	}

	repoName, ok := w.dirs[filepath.Dir(filepath.Clean(event.Name))]
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[repoName]; ok {
		t.Reset(w.debounce)
		return
	}

	w.timers[repoName] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, repoName)
		w.mu.Unlock()

		if _, err := w.queue.Enqueue(repoName); err != nil {
			w.logger.WithFields(logrus.Fields{
				"repo":  repoName,
				"error": err.Error(),
			}).Error("Failed to schedule update after package change")
		}
	})
}
