package core

import (
	"cmp"
	"slices"
)

// SortByDepth orders particles farthest first. Entries at SentinelDistance
// end up after every renderable one. Ties are unordered.
func SortByDepth(particles []Particle) {
	slices.SortFunc(particles, func(a, b Particle) int {
		return cmp.Compare(b.CameraDistance, a.CameraDistance)
	})
}

// IsDepthSorted reports whether particles are in non-increasing distance order.
func IsDepthSorted(particles []Particle) bool {
	for i := 1; i < len(particles); i++ {
		if particles[i-1].CameraDistance < particles[i].CameraDistance {
			return false
		}
	}
	return true
}
