package math

import (
	"math/rand"
)

func RandomUniform() float32 {
	return float32(rand.Float32())
}

func RandomUniformVector(size int) Vector {
	vec := make(Vector, size)
	for i := 0; i < size; i++ {
		vec[i] = RandomUniform()
	}
	return vec
}

func RandomStandardNormalVector(size int) Vector {
	vec := make(Vector, size)
	for i := 0; i < size; i++ {
		vec[i] = float32(rand.NormFloat64())
	}
	return vec
}

func RandomNormalVector(size int, mu, sigma float32) Vector {
	vec := make(Vector, size)
	for i := 0; i < size; i++ {
		vec[i] = float32(rand.NormFloat64())*sigma + mu
	}
	return vec
}

// RandomSample returns n distinct indices drawn uniformly without
// replacement from [0, max). Panics if n > max.
func RandomSample(n, max int) []int {
	if n > max {
		panic("Sample size exceeds population size.")
	}

	perm := rand.Perm(max)
	return perm[:n]
}
