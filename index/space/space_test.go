package space

import (
	"testing"

	"github.com/vecdex/vecdex/math"

	"github.com/stretchr/testify/assert"
)

var impls = map[string]SpaceImpl{
	"native":   nativeSpaceImpl{},
	"unrolled": unrolledSpaceImpl{},
}

func TestSquaredL2Distance(t *testing.T) {
	a := math.Vector{1, 0, 2, -1, 0.5}
	b := math.Vector{0, 1, 2, 1, 0.5}

	for name, impl := range impls {
		assert.InDelta(t, 6.0, float64(impl.SquaredL2Distance(a, b)), 1e-6, name)
		assert.Equal(t, float32(0), impl.SquaredL2Distance(a, a), name)
	}
}

func TestInnerProductDistance(t *testing.T) {
	a := math.Vector{1, 2, 3, 4, 5}
	b := math.Vector{5, 4, 3, 2, 1}

	for name, impl := range impls {
		assert.InDelta(t, float64(1-35), float64(impl.InnerProductDistance(a, b)), 1e-6, name)
	}
}

func TestImplsAgreeOnRandomVectors(t *testing.T) {
	for i := 0; i < 100; i++ {
		a := math.RandomUniformVector(37)
		b := math.RandomUniformVector(37)

		assert.InDelta(t,
			float64(impls["native"].SquaredL2Distance(a, b)),
			float64(impls["unrolled"].SquaredL2Distance(a, b)),
			1e-4)
		assert.InDelta(t,
			float64(impls["native"].InnerProductDistance(a, b)),
			float64(impls["unrolled"].InnerProductDistance(a, b)),
			1e-4)
	}
}

func TestParseMetric(t *testing.T) {
	metric, err := ParseMetric("l2")
	assert.Nil(t, err)
	assert.Equal(t, MetricSquaredL2, metric)

	metric, err = ParseMetric("inner_product")
	assert.Nil(t, err)
	assert.Equal(t, MetricInnerProduct, metric)

	_, err = ParseMetric("cosine")
	assert.Equal(t, InvalidMetricErr, err)
}

func TestNewSpace(t *testing.T) {
	s, err := New(MetricSquaredL2)
	assert.Nil(t, err)
	assert.Equal(t, MetricSquaredL2, s.Metric())

	s, err = New(MetricInnerProduct)
	assert.Nil(t, err)
	assert.Equal(t, MetricInnerProduct, s.Metric())

	_, err = New(Metric(42))
	assert.Equal(t, InvalidMetricErr, err)
}
