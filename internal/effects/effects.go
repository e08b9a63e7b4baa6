// Package effects holds the page's animation keyframes and the randomized
// background orb layout.
package effects

import (
	"math/rand/v2"
	"strings"
)

// Keyframe is a named CSS @keyframes rule.
type Keyframe struct {
	Name string
	Body string
}

// Keyframes are emitted in this order.
var Keyframes = []Keyframe{
	{"matrix-rain", `
  0% { transform: translateY(0); }
  100% { transform: translateY(100%); }`},
	{"float", `
  0%, 100% { transform: translateY(0); }
  50% { transform: translateY(-20px); }`},
	{"pulse-glow", `
  0%, 100% { opacity: 0.1; }
  50% { opacity: 0.3; }`},
	{"grid-scroll", `
  0% { transform: translateY(0); }
  100% { transform: translateY(50px); }`},
	{"scanline", `
  0% { transform: translateY(0); }
  100% { transform: translateY(100%); }`},
}

// Stylesheet returns every keyframe as one CSS document.
func Stylesheet() string {
	var sb strings.Builder
	for i, k := range Keyframes {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("@keyframes ")
		sb.WriteString(k.Name)
		sb.WriteString(" {")
		sb.WriteString(k.Body)
		sb.WriteString("\n}\n")
	}
	return sb.String()
}

// DefaultOrbCount is how many orbs the page floats.
const DefaultOrbCount = 5

// Orb is one blurred floating circle. Sizes are pixels, positions are
// percentages of the viewport and times are milliseconds.
type Orb struct {
	Size     int
	Left     int
	Top      int
	Duration int
	Delay    int
}

// Orbs lays out n orbs: size 100..400px, position 0..100%, duration 5..10s
// and delay 0..2s.
func Orbs(rng *rand.Rand, n int) []Orb {
	orbs := make([]Orb, n)
	for i := range orbs {
		orbs[i] = Orb{
			Size:     100 + rng.IntN(301),
			Left:     rng.IntN(101),
			Top:      rng.IntN(101),
			Duration: 5000 + rng.IntN(5001),
			Delay:    rng.IntN(2001),
		}
	}
	return orbs
}
