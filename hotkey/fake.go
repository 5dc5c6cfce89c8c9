package hotkey

import (
	"fmt"
	"sync"
)

// Recorder is an in-memory Hooks for tests. Combos listed in Fail are
// rejected; everything else is recorded and can be fired with Trigger.
type Recorder struct {
	mu       sync.Mutex
	hooks    map[string]func()
	order    []string
	Fail     map[string]bool
	Unhooks  int
	Attempts int
}

func NewRecorder() *Recorder {
	return &Recorder{hooks: map[string]func(){}, Fail: map[string]bool{}}
}

func (r *Recorder) Hook(combo string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Attempts++
	if r.Fail[combo] {
		return fmt.Errorf("%w: rejected %q", ErrInvalidCombo, combo)
	}
	if _, err := Parse(combo); err != nil {
		return err
	}
	if _, ok := r.hooks[combo]; !ok {
		r.order = append(r.order, combo)
	}
	r.hooks[combo] = fn
	return nil
}

func (r *Recorder) UnhookAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = map[string]func(){}
	r.order = nil
	r.Unhooks++
}

// Combos returns the installed combinations in hook order.
func (r *Recorder) Combos() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Trigger simulates a key press, reporting whether combo was hooked.
func (r *Recorder) Trigger(combo string) bool {
	r.mu.Lock()
	fn, ok := r.hooks[combo]
	r.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

// Nop accepts every hook and never fires. Used by one-shot CLI commands
// that edit the registry without listening for keys.
type Nop struct{}

func (Nop) Hook(string, func()) error { return nil }
func (Nop) UnhookAll()                {}
