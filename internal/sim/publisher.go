package sim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomz197/cubefall/internal/scene"
)

// Publisher is the Renderer used when viewers run on other goroutines.
// Each frame becomes an immutable snapshot that viewers load lock-free.
type Publisher struct {
	snapshot atomic.Pointer[scene.Snapshot]
	viewers  atomic.Int32

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Compile-time check that Publisher implements Renderer.
var _ Renderer = (*Publisher)(nil)

// NewPublisher creates a publisher holding an empty snapshot.
func NewPublisher() *Publisher {
	p := &Publisher{shutdown: make(chan struct{})}
	p.snapshot.Store(&scene.Snapshot{})
	return p
}

// Render implements Renderer.
func (p *Publisher) Render(frame Frame) error {
	p.snapshot.Store(frame.Scene.Snapshot(frame.Stats))
	return nil
}

// Latest returns the most recent snapshot. Never nil.
func (p *Publisher) Latest() *scene.Snapshot {
	return p.snapshot.Load()
}

// Register counts a viewer in.
func (p *Publisher) Register() { p.viewers.Add(1) }

// Unregister counts a viewer out.
func (p *Publisher) Unregister() { p.viewers.Add(-1) }

// Viewers returns how many viewers are registered.
func (p *Publisher) Viewers() int { return int(p.viewers.Load()) }

// Done is closed when Shutdown starts.
func (p *Publisher) Done() <-chan struct{} { return p.shutdown }

// Shutdown notifies viewers and waits for them to unregister, up to timeout.
func (p *Publisher) Shutdown(timeout time.Duration) {
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for p.Viewers() > 0 {
		select {
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}
