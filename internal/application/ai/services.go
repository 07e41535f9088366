// Package ai implements the cluster summary use-case on top of a chat
// completion client.
package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/attriscope/attriscope/internal/domain/ai"
	"github.com/attriscope/attriscope/internal/domain/workspace"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

// Summarize condenses an analysis into a text digest and asks the model for
// a summary. Returns ErrDisabled when no client is configured.
func (s *Service) Summarize(ctx context.Context, analysis *workspace.Analysis) (string, error) {
	if s == nil || s.client == nil {
		return "", ai.ErrDisabled
	}
	return s.client.Summarize(ctx, Digest(analysis))
}

// Digest renders the numeric shape of an analysis as text: category,
// eigenvalue spectrum and cluster size distribution.
func Digest(analysis *workspace.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "category: %s", analysis.CategoryName)
	if analysis.HumanReadableCategoryName != "" && analysis.HumanReadableCategoryName != analysis.CategoryName {
		fmt.Fprintf(&b, " (%s)", analysis.HumanReadableCategoryName)
	}
	fmt.Fprintf(&b, "\nclustering: %s\nembedding: %s\nsamples: %d\n",
		analysis.ClusteringName, analysis.EmbeddingName, len(analysis.Embedding))

	if len(analysis.EigenValues) > 0 {
		b.WriteString("eigenvalues:")
		for _, v := range analysis.EigenValues {
			fmt.Fprintf(&b, " %.4f", v)
		}
		b.WriteString("\n")
	}

	sizes := make(map[int32]int)
	for _, cluster := range analysis.Clustering {
		sizes[cluster]++
	}
	clusters := make([]int32, 0, len(sizes))
	for cluster := range sizes {
		clusters = append(clusters, cluster)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i] < clusters[j] })
	b.WriteString("cluster sizes:")
	for _, cluster := range clusters {
		fmt.Fprintf(&b, " %d:%d", cluster, sizes[cluster])
	}
	b.WriteString("\n")

	return b.String()
}
