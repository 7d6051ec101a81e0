package scheduler

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// driftDetector compares a perceptual hash of each area frame with the previous
// one. pHash follows luminance structure, so it reports layout shifts such as a
// scrolled dashboard rather than color changes. It never affects decisions.
type driftDetector struct {
	threshold int

	mu     sync.Mutex
	hashes map[string]*goimagehash.ImageHash
}

func newDriftDetector(threshold int) *driftDetector {
	return &driftDetector{threshold: threshold, hashes: make(map[string]*goimagehash.ImageHash)}
}

// observe records the frame and returns the distance to the previous frame and
// whether it exceeds the threshold.
func (d *driftDetector) observe(areaKey string, img image.Image) (int, bool) {
	if d == nil || d.threshold <= 0 {
		return 0, false
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.hashes[areaKey]
	d.hashes[areaKey] = hash
	if prev == nil {
		return 0, false
	}
	dist, err := prev.Distance(hash)
	if err != nil {
		return 0, false
	}
	return dist, dist > d.threshold
}

func (d *driftDetector) reset() {
	if d == nil {
		return
	}
	d.mu.Lock()
	clear(d.hashes)
	d.mu.Unlock()
}
