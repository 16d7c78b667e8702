package space

import (
	"errors"

	"github.com/vecdex/vecdex/math"

	"github.com/klauspost/cpuid"
)

var InvalidMetricErr error = errors.New("Invalid distance metric")

// Metric is the closed set of distance conventions supported by the backing
// indexes. Both are reported as distances: smaller is better.
type Metric uint8

const (
	MetricSquaredL2 Metric = iota + 1
	MetricInnerProduct
)

var metricNames = map[Metric]string{
	MetricSquaredL2:    "l2",
	MetricInnerProduct: "inner_product",
}

func (m Metric) String() string {
	if name, exists := metricNames[m]; exists {
		return name
	}
	return "unknown"
}

func ParseMetric(name string) (Metric, error) {
	for metric, metricName := range metricNames {
		if metricName == name {
			return metric, nil
		}
	}
	return 0, InvalidMetricErr
}

type SpaceImpl interface {
	SquaredL2Distance(math.Vector, math.Vector) float32
	InnerProductDistance(math.Vector, math.Vector) float32
}

type Space interface {
	Distance(math.Vector, math.Vector) float32
	Metric() Metric
	String() string
}

type space struct {
	impl SpaceImpl
}

func newSpace() space {
	if cpuid.CPU.AVX() {
		return space{impl: unrolledSpaceImpl{}}
	}
	return space{impl: nativeSpaceImpl{}}
}

type SquaredL2 struct{ space }

type InnerProduct struct{ space }

func NewSquaredL2() Space {
	return &SquaredL2{newSpace()}
}

func (this *SquaredL2) Distance(a, b math.Vector) float32 {
	return this.impl.SquaredL2Distance(a, b)
}

func (this *SquaredL2) Metric() Metric { return MetricSquaredL2 }

func (this *SquaredL2) String() string { return MetricSquaredL2.String() }

func NewInnerProduct() Space {
	return &InnerProduct{newSpace()}
}

// Distance for the inner product metric is 1 - <a,b>, so that ascending
// distance order matches descending similarity order. The value can be
// negative.
func (this *InnerProduct) Distance(a, b math.Vector) float32 {
	return this.impl.InnerProductDistance(a, b)
}

func (this *InnerProduct) Metric() Metric { return MetricInnerProduct }

func (this *InnerProduct) String() string { return MetricInnerProduct.String() }

func New(metric Metric) (Space, error) {
	switch metric {
	case MetricSquaredL2:
		return NewSquaredL2(), nil
	case MetricInnerProduct:
		return NewInnerProduct(), nil
	}
	return nil, InvalidMetricErr
}
