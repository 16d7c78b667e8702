package index

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/vecdex/vecdex/index/space"
)

var InvalidIndexKeyErr error = errors.New("Invalid index key")

// An index key is a configuration descriptor in the factory grammar:
// "Flat" or "IVF<nlist>,Flat" (case insensitive). Constructors are matched
// in registration order.
type indexConstructor struct {
	pattern          *regexp.Regexp
	requiresTraining bool
	build            func(match []string, dim int, s space.Space, options []IVFOption) (Index, error)
}

var indexConstructors = []indexConstructor{
	{
		pattern:          regexp.MustCompile(`(?i)^flat$`),
		requiresTraining: false,
		build: func(match []string, dim int, s space.Space, options []IVFOption) (Index, error) {
			return NewFlat(dim, s), nil
		},
	},
	{
		pattern:          regexp.MustCompile(`(?i)^ivf(\d+),flat$`),
		requiresTraining: true,
		build: func(match []string, dim int, s space.Space, options []IVFOption) (Index, error) {
			nlist, err := strconv.Atoi(match[1])
			if err != nil {
				return nil, InvalidIndexKeyErr
			}
			return NewIVFFlat(dim, s, nlist, options...), nil
		},
	},
}

// ValidateKey checks an index key against the factory grammar without
// constructing anything, so misconfiguration surfaces at startup.
func ValidateKey(indexKey string) error {
	for _, constructor := range indexConstructors {
		if constructor.pattern.MatchString(indexKey) {
			return nil
		}
	}
	return InvalidIndexKeyErr
}

// RequiresTraining reports whether the index key describes a type that must
// be trained before insertion.
func RequiresTraining(indexKey string) bool {
	for _, constructor := range indexConstructors {
		if constructor.pattern.MatchString(indexKey) {
			return constructor.requiresTraining
		}
	}
	return false
}

func New(indexKey string, dim int, s space.Space, options ...IVFOption) (Index, error) {
	for _, constructor := range indexConstructors {
		if match := constructor.pattern.FindStringSubmatch(indexKey); match != nil {
			return constructor.build(match, dim, s, options)
		}
	}
	return nil, InvalidIndexKeyErr
}
