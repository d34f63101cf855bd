package ruler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultStep is the smallest increment the ruler recognises.
	DefaultStep = 0.1
	// DefaultTickWidth is the on-screen distance between two ticks.
	DefaultTickWidth = 10.0
)

// State is the gesture state of the ruler.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Ruler maps a horizontal scroll offset to a clamped, stepped value and back.
// It is not safe for concurrent use; it is driven by one event source.
type Ruler struct {
	min       float64
	max       float64
	step      float64
	tickWidth float64
	viewport  float64
	decimals  int

	state       State
	offset      float64
	value       float64
	startX      float64
	startOffset float64
}

// Option customises a Ruler.
type Option func(*Ruler)

// WithStep overrides DefaultStep.
func WithStep(step float64) Option {
	return func(r *Ruler) { r.step = step }
}

// WithTickWidth overrides DefaultTickWidth.
func WithTickWidth(w float64) Option {
	return func(r *Ruler) { r.tickWidth = w }
}

// WithViewport sets the visible width; the selected value sits at its centre.
func WithViewport(w float64) Option {
	return func(r *Ruler) { r.viewport = w }
}

// New returns a ruler over [min, max] committed to value. max-min must be a whole number of steps.
func New(min, max, value float64, opts ...Option) (*Ruler, error) {
	r := &Ruler{
		min:       min,
		max:       max,
		step:      DefaultStep,
		tickWidth: DefaultTickWidth,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.step <= 0 || r.tickWidth <= 0 {
		return nil, fmt.Errorf("ruler: step and tick width must be positive")
	}
	if max <= min {
		return nil, fmt.Errorf("ruler: max %v must exceed min %v", max, min)
	}
	ticks := (max - min) / r.step
	if math.Abs(ticks-math.Round(ticks)) > 1e-6 {
		return nil, fmt.Errorf("ruler: range %v-%v is not a whole number of %v steps", min, max, r.step)
	}
	r.decimals = decimalsOf(r.step)

	r.value = r.Normalize(value)
	r.offset = r.OffsetFor(r.value)
	return r, nil
}

// Normalize snaps v to the step grid anchored at min and clamps it to [min, max]. NaN maps to min.
func (r *Ruler) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return r.min
	}
	snapped := r.min + math.Round((v-r.min)/r.step)*r.step
	clamped := math.Max(r.min, math.Min(r.max, snapped))
	return roundTo(clamped, r.decimals)
}

// ValueAt returns the value under the viewport centre for a scroll offset.
func (r *Ruler) ValueAt(offset float64) float64 {
	raw := (offset+r.viewport/2)/r.tickWidth*r.step + r.min
	return r.Normalize(raw)
}

// OffsetFor is the inverse of ValueAt: the scroll offset that centres value.
func (r *Ruler) OffsetFor(value float64) float64 {
	return (value-r.min)/r.step*r.tickWidth - r.viewport/2
}

// PointerDown starts a drag at pointer position x.
func (r *Ruler) PointerDown(x float64) {
	r.state = Dragging
	r.startX = x
	r.startOffset = r.offset
}

// PointerMove recomputes the candidate value from the latest pointer position. Intermediate
// positions are never queued: each call replaces the previous candidate. The second result is
// false when no drag is in progress.
func (r *Ruler) PointerMove(x float64) (float64, bool) {
	if r.state != Dragging {
		return r.value, false
	}
	r.offset = r.startOffset - (x - r.startX)
	r.value = r.ValueAt(r.offset)
	return r.value, true
}

// PointerUp ends the drag and commits the candidate; the ruler re-centres on it.
func (r *Ruler) PointerUp() float64 {
	r.state = Idle
	r.offset = r.OffsetFor(r.value)
	return r.value
}

// PointerLeave behaves like PointerUp.
func (r *Ruler) PointerLeave() float64 {
	return r.PointerUp()
}

// SetValue applies a controlled value coming from outside the gesture. It is ignored while
// dragging so it never fights the user's hand, and non-finite values are dropped. It reports
// whether the value was applied.
func (r *Ruler) SetValue(v float64) bool {
	if r.state == Dragging || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	r.value = r.Normalize(v)
	r.offset = r.OffsetFor(r.value)
	return true
}

// CommitText handles direct numeric entry on blur.
func (r *Ruler) CommitText(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return r.value, fmt.Errorf("ruler: %q is not a number", text)
	}
	r.state = Idle
	r.value = r.Normalize(v)
	r.offset = r.OffsetFor(r.value)
	return r.value, nil
}

func (r *Ruler) Value() float64  { return r.value }
func (r *Ruler) Offset() float64 { return r.offset }
func (r *Ruler) State() State    { return r.state }
func (r *Ruler) Min() float64    { return r.min }
func (r *Ruler) Max() float64    { return r.max }
func (r *Ruler) Step() float64   { return r.step }

// TickCount is the number of step intervals drawn on the ruler.
func (r *Ruler) TickCount() int {
	return int(math.Round((r.max - r.min) / r.step))
}

func decimalsOf(step float64) int {
	d := 0
	for d < 10 && math.Abs(step*math.Pow10(d)-math.Round(step*math.Pow10(d))) > 1e-9 {
		d++
	}
	return d
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
