// Package store holds the client-side state layer: the task cache, the
// timer engine, the progression engine and the history aggregator. Each
// component caches rows from the remote store and touches its cache only
// after the corresponding remote call succeeded.
package store

import (
	"errors"
	"time"

	"github.com/darwiniquina/daily-task/internal/backend"
	"github.com/darwiniquina/daily-task/internal/prefs"
)

// ErrNotSignedIn is returned by operations that need an authenticated user
var ErrNotSignedIn = errors.New("not signed in")

// Stores bundles the state components built over one backend session
type Stores struct {
	Tasks    *TaskStore
	Timer    *TimerEngine
	Progress *Progression
	History  *History
}

// New constructs all components. Caches are cleared whenever the session
// provider reports a sign-out.
func New(api *backend.Client, auth *backend.Auth, pf *prefs.Store) *Stores {
	s := &Stores{
		Tasks:    NewTaskStore(api, auth, pf),
		Timer:    NewTimerEngine(api, auth),
		Progress: NewProgression(api, auth),
		History:  NewHistory(api),
	}

	auth.OnChange(func(session *backend.Session) {
		if session == nil {
			s.Tasks.Reset()
			s.Timer.Reset()
			s.Progress.Reset()
			s.History.Reset()
		}
	})

	return s
}

// Close releases background resources (the timer engine's clock)
func (s *Stores) Close() {
	s.Timer.Reset()
}

func defaultNow() time.Time {
	return time.Now()
}
