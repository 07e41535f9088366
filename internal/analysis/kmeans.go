package analysis

import (
	"math/rand"
)

const kmeansMaxIterations = 300

// KMeans clusters the points into k groups with Lloyd's algorithm and
// k-means++ seeding. The seed makes runs reproducible.
func KMeans(points [][]float64, k int, seed int64) []int32 {
	n := len(points)
	assign := make([]int32, n)
	if n == 0 || k <= 1 {
		return assign
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(points, k, rng)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCenter(p, centers)
			if assign[i] != int32(best) {
				assign[i] = int32(best)
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recomputeCenters(points, assign, centers)
	}
	return assign
}

// seedCenters picks initial centers with k-means++: each next center is drawn
// with probability proportional to the squared distance to the closest
// already chosen center.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	dim := len(points[0])
	centers := make([][]float64, 0, k)
	first := append([]float64(nil), points[rng.Intn(n)]...)
	centers = append(centers, first)

	dist := make([]float64, n)
	for len(centers) < k {
		var total float64
		for i, p := range points {
			d := SquaredL2(p, centers[0])
			for _, c := range centers[1:] {
				if dc := SquaredL2(p, c); dc < d {
					d = dc
				}
			}
			dist[i] = d
			total += d
		}
		idx := 0
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				r -= d
				if r <= 0 {
					idx = i
					break
				}
			}
		} else {
			idx = rng.Intn(n)
		}
		center := make([]float64, dim)
		copy(center, points[idx])
		centers = append(centers, center)
	}
	return centers
}

func nearestCenter(p []float64, centers [][]float64) int {
	best, bestDist := 0, SquaredL2(p, centers[0])
	for c := 1; c < len(centers); c++ {
		if d := SquaredL2(p, centers[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func recomputeCenters(points [][]float64, assign []int32, centers [][]float64) {
	dim := len(points[0])
	counts := make([]int, len(centers))
	for c := range centers {
		for d := 0; d < dim; d++ {
			centers[c][d] = 0
		}
	}
	for i, p := range points {
		c := assign[i]
		counts[c]++
		for d := 0; d < dim; d++ {
			centers[c][d] += p[d]
		}
	}
	for c := range centers {
		if counts[c] == 0 {
			continue // empty cluster keeps its previous (now zeroed) center
		}
		for d := 0; d < dim; d++ {
			centers[c][d] /= float64(counts[c])
		}
	}
}
