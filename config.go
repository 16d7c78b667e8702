package vecdex

import (
	"github.com/vecdex/vecdex/index/space"
)

const (
	DEFAULT_TOP_K         uint = 5
	DEFAULT_NPROBE        int  = 1
	DEFAULT_PREFETCH_SIZE int  = 512
)

type Config struct {
	indexKey          string
	metric            space.Metric
	normalize         bool
	trainedIndexFile  string
	maxTrainingPoints int
	nprobe            int
	defaultTopK       uint
	isDistance        bool
	prefetchSize      int
	makeDirectMap     bool
}

func newConfig() *Config {
	return &Config{
		indexKey:     "Flat",
		metric:       space.MetricSquaredL2,
		nprobe:       DEFAULT_NPROBE,
		defaultTopK:  DEFAULT_TOP_K,
		prefetchSize: DEFAULT_PREFETCH_SIZE,
	}
}

// Options
type IndexerOption interface {
	apply(*Config)
}

type indexerOption struct {
	applyFunc func(*Config)
}

func (opt *indexerOption) apply(config *Config) {
	opt.applyFunc(config)
}

// IndexKey selects the backing index type: "Flat" or "IVF<nlist>,Flat".
func IndexKey(value string) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.indexKey = value
	}}
}

func Metric(value space.Metric) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.metric = value
	}}
}

// Normalize L2-normalizes vectors before insertion and before every query.
// With the inner product metric this turns scores into cosine similarities.
func Normalize() IndexerOption {
	return &indexerOption{func(config *Config) {
		config.normalize = true
	}}
}

// TrainedIndexFile points at a serialized pre-trained empty index. When set,
// Build loads it instead of training from the source stream.
func TrainedIndexFile(path string) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.trainedIndexFile = path
	}}
}

// MaxTrainingPoints caps how many vectors are sampled for training. Zero
// means use everything the source yields.
func MaxTrainingPoints(value int) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.maxTrainingPoints = value
	}}
}

func Nprobe(value int) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.nprobe = value
	}}
}

func DefaultTopK(value uint) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.defaultTopK = value
	}}
}

// IsDistance makes Search report raw distances instead of converting them to
// similarity scores.
func IsDistance() IndexerOption {
	return &indexerOption{func(config *Config) {
		config.isDistance = true
	}}
}

// PrefetchSize sets how many source records are pulled per insertion batch
// during Build.
func PrefetchSize(value int) IndexerOption {
	return &indexerOption{func(config *Config) {
		config.prefetchSize = value
	}}
}

// MakeDirectMap keeps an offset map on IVF indexes so Embedding() can
// reconstruct stored vectors.
func MakeDirectMap() IndexerOption {
	return &indexerOption{func(config *Config) {
		config.makeDirectMap = true
	}}
}
