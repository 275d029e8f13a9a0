package gamification

import "sync"

// Animator advances a displayed progress percentage by one step per display
// refresh frame until it reaches the target. The displayed value is
// monotonically non-decreasing, never overshoots, and terminates exactly at
// the target.
type Animator struct {
	mu      sync.Mutex
	current int
	target  int
}

// NewAnimator creates an animator starting at zero aiming for target.
func NewAnimator(target int) *Animator {
	if target < 0 {
		target = 0
	}
	if target > 100 {
		target = 100
	}
	return &Animator{target: target}
}

// Tick advances one frame and returns the displayed value.
func (a *Animator) Tick() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current < a.target {
		a.current++
	}
	return a.current
}

// Value returns the currently displayed percentage.
func (a *Animator) Value() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Done reports whether the animation has reached its target.
func (a *Animator) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current == a.target
}

// Retarget raises the target, keeping the displayed value monotonic. A lower
// target than the current display is clamped so the bar never moves backward.
func (a *Animator) Retarget(target int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if target > 100 {
		target = 100
	}
	if target < a.current {
		target = a.current
	}
	a.target = target
}
