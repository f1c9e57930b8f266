package curve

import (
	"fmt"
	"sort"

	"github.com/fogleman/ease"
	"github.com/samber/lo"
)

// Timing maps linear progress through an iteration in [0, 1] onto eased
// progress in [0, 1].
type Timing func(t float64) float64

var timings = map[string]Timing{
	"linear":               ease.Linear,
	"easeIn":               ease.InQuad,
	"easeOut":              ease.OutQuad,
	"easeInEaseOut":        ease.InOutQuad,
	"easeInCubic":          ease.InCubic,
	"easeOutCubic":         ease.OutCubic,
	"easeInEaseOutCubic":   ease.InOutCubic,
	"easeInSine":           ease.InSine,
	"easeOutSine":          ease.OutSine,
	"easeInEaseOutSine":    ease.InOutSine,
	"easeOutBounce":        ease.OutBounce,
	"easeOutElastic":       ease.OutElastic,
	"easeInEaseOutElastic": ease.InOutElastic,
}

// Linear is the default timing.
var Linear Timing = ease.Linear

// TimingByName looks up a named easing function. An empty name is linear.
func TimingByName(name string) (Timing, error) {
	if name == "" {
		return Linear, nil
	}
	t, ok := timings[name]
	if !ok {
		return nil, fmt.Errorf("unknown timing function %q (known: %v)", name, TimingNames())
	}
	return t, nil
}

// TimingNames lists the registered timing names in sorted order.
func TimingNames() []string {
	names := lo.Keys(timings)
	sort.Strings(names)
	return names
}

// Reversed returns the timing that plays the receiver backwards in time.
func (f Timing) Reversed() Timing {
	if f == nil {
		return nil
	}
	return func(t float64) float64 {
		return 1 - f(1-t)
	}
}
