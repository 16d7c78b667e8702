package space

import (
	"github.com/vecdex/vecdex/math"
)

type nativeSpaceImpl struct{}

func (nativeSpaceImpl) SquaredL2Distance(a, b math.Vector) float32 {
	var distance float32
	for i := 0; i < len(a); i++ {
		diff := a[i] - b[i]
		distance += diff * diff
	}
	return distance
}

func (nativeSpaceImpl) InnerProductDistance(a, b math.Vector) float32 {
	return 1 - math.Dot(a, b)
}
