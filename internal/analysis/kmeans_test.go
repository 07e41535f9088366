package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeansSeparatedClusters(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}
	assign := KMeans(points, 2, 42)
	require.Len(t, assign, 6)

	assert.Equal(t, assign[0], assign[1])
	assert.Equal(t, assign[0], assign[2])
	assert.Equal(t, assign[3], assign[4])
	assert.Equal(t, assign[3], assign[5])
	assert.NotEqual(t, assign[0], assign[3])
}

func TestKMeansDeterministic(t *testing.T) {
	points := [][]float64{
		{0, 0}, {1, 1}, {5, 5}, {6, 6}, {-3, 2}, {4, -1},
	}
	first := KMeans(points, 3, 7)
	second := KMeans(points, 3, 7)
	assert.Equal(t, first, second)
}

func TestKMeansDegenerateK(t *testing.T) {
	points := [][]float64{{0}, {1}, {2}}

	assert.Equal(t, []int32{0, 0, 0}, KMeans(points, 1, 0))
	assert.Empty(t, KMeans(nil, 3, 0))

	// More clusters than points clamps k to the point count.
	assign := KMeans([][]float64{{0}, {10}}, 5, 1)
	assert.NotEqual(t, assign[0], assign[1])
}

func TestClusteringName(t *testing.T) {
	assert.Equal(t, "kmeans-02", ClusteringName(2))
	assert.Equal(t, "kmeans-10", ClusteringName(10))
}
