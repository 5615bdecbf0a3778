package sitemap

import "time"

// Hooks observes builds and scope lookups. Implementations must be safe
// for concurrent use.
type Hooks interface {
	BuildStarted(name string)
	// BuildFinished reports the outcome of one build attempt. nodes is 0
	// when err is set.
	BuildFinished(name string, elapsed time.Duration, nodes int, err error)
	ScopeLookup(name string, hit bool)
	Invalidated(name string)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) BuildStarted(string) {}
func (NopHooks) BuildFinished(string, time.Duration, int, error) {}
func (NopHooks) ScopeLookup(string, bool) {}
func (NopHooks) Invalidated(string) {}
