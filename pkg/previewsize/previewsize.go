// Package previewsize picks a camera preview resolution for a target size.
package previewsize

import "github.com/user/qrmobilevision/pkg/vision"

// Select returns the smallest offered size that covers target.
//
// offered is expected in driver order, which is monotone on real hardware;
// its direction is inferred from the first two elements. When the sensor is
// rotated 90 degrees relative to the display, target is swapped into sensor
// coordinates before comparing.
//
// Ascending lists yield the first size strictly larger than target in both
// dimensions, or the last size. Descending lists yield the last size that is
// at least target in both dimensions, or the first size.
//
// Select panics if offered is empty.
func Select(offered []vision.Size, target vision.Size, sensorDegrees int) vision.Size {
	if len(offered) == 0 {
		panic("previewsize: no offered preview sizes")
	}
	if len(offered) == 1 {
		return offered[0]
	}

	if sensorDegrees%180 != 0 {
		target = target.Swap()
	}

	if ascending(offered[0], offered[1]) {
		s := offered[0]
		for _, size := range offered {
			s = size
			if size.Exceeds(target) {
				break
			}
		}
		return s
	}

	s := offered[0]
	for _, size := range offered {
		if !size.Covers(target) {
			break
		}
		s = size
	}
	return s
}

func ascending(first, second vision.Size) bool {
	return second.Width > first.Width || second.Height > first.Height
}
