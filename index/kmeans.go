package index

import (
	"math/rand"

	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
)

const KMEANS_MAX_ITERATIONS int = 25

// trainKMeans runs Lloyd's algorithm and returns k centroids. Callers must
// guarantee len(sample) >= k. Empty clusters are re-seeded from a random
// sample point.
func trainKMeans(sample []math.Vector, k int, s space.Space) []math.Vector {
	dim := len(sample[0])

	centroids := make([]math.Vector, k)
	for i, idx := range math.RandomSample(k, len(sample)) {
		centroids[i] = make(math.Vector, dim)
		copy(centroids[i], sample[idx])
	}

	assignments := make([]int, len(sample))
	sums := make([]math.Vector, k)
	counts := make([]int, k)
	for i := 0; i < k; i++ {
		sums[i] = make(math.Vector, dim)
	}

	for iter := 0; iter < KMEANS_MAX_ITERATIONS; iter++ {
		changed := false
		for i, vector := range sample {
			cluster := nearestCentroid(vector, centroids, s)
			if assignments[i] != cluster {
				assignments[i] = cluster
				changed = true
			}
		}

		if (iter > 0) && !changed {
			break
		}

		for i := 0; i < k; i++ {
			for j := 0; j < dim; j++ {
				sums[i][j] = 0
			}
			counts[i] = 0
		}
		for i, vector := range sample {
			cluster := assignments[i]
			for j := 0; j < dim; j++ {
				sums[cluster][j] += vector[j]
			}
			counts[cluster]++
		}

		for i := 0; i < k; i++ {
			if counts[i] == 0 {
				copy(centroids[i], sample[rand.Intn(len(sample))])
				continue
			}
			scale := 1.0 / float32(counts[i])
			for j := 0; j < dim; j++ {
				centroids[i][j] = sums[i][j] * scale
			}
		}
	}

	return centroids
}

func nearestCentroid(vector math.Vector, centroids []math.Vector, s space.Space) int {
	nearest := 0
	minDistance := math.MaxFloat
	for i, centroid := range centroids {
		if distance := s.Distance(vector, centroid); distance < minDistance {
			minDistance = distance
			nearest = i
		}
	}
	return nearest
}
