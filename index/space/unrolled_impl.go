package space

import (
	"github.com/vecdex/vecdex/math"
)

// unrolledSpaceImpl processes four lanes per iteration. The independent
// accumulators let the compiler vectorize on AVX-capable CPUs.
type unrolledSpaceImpl struct{}

func (unrolledSpaceImpl) SquaredL2Distance(a, b math.Vector) float32 {
	var d0, d1, d2, d3 float32

	i := 0
	for ; i+4 <= len(a); i += 4 {
		f0 := a[i] - b[i]
		f1 := a[i+1] - b[i+1]
		f2 := a[i+2] - b[i+2]
		f3 := a[i+3] - b[i+3]
		d0 += f0 * f0
		d1 += f1 * f1
		d2 += f2 * f2
		d3 += f3 * f3
	}
	for ; i < len(a); i++ {
		f := a[i] - b[i]
		d0 += f * f
	}

	return d0 + d1 + d2 + d3
}

func (unrolledSpaceImpl) InnerProductDistance(a, b math.Vector) float32 {
	var d0, d1, d2, d3 float32

	i := 0
	for ; i+4 <= len(a); i += 4 {
		d0 += a[i] * b[i]
		d1 += a[i+1] * b[i+1]
		d2 += a[i+2] * b[i+2]
		d3 += a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		d0 += a[i] * b[i]
	}

	return 1 - (d0 + d1 + d2 + d3)
}
