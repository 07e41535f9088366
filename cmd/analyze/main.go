// Command analyze runs the spectral analysis pipeline offline: it loads a
// project file, analyzes the attributions per category and writes an HDF5
// analysis database that the project file can then reference.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/attriscope/attriscope/internal/analysis"
	"github.com/attriscope/attriscope/internal/infra/loader"
	"github.com/attriscope/attriscope/internal/infra/pipeline"
)

var (
	flagProject     string
	flagOutput      string
	flagCategory    string
	flagNeighbors   int
	flagDims        int
	flagClustersMin int
	flagClustersMax int
	flagSeed        int64
	flagParallel    int
)

var rootCmd = &cobra.Command{
	Use:          "analyze",
	Short:        "Run the spectral analysis pipeline over a project's attributions",
	SilenceUsage: true,
	Long: `analyze loads a project file, reads its attribution databases, computes a
spectral embedding per category and clusters it with k-means for a range of
cluster counts. The result is written as an HDF5 analysis database.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagProject, "project", "p", "", "path to the project YAML file (required)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "analysis.h5", "path of the analysis database to write")
	rootCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "analyze only this category (default: all)")
	rootCmd.Flags().IntVar(&flagNeighbors, "neighbors", 10, "k of the k-nearest-neighbor affinity graph")
	rootCmd.Flags().IntVar(&flagDims, "dims", 8, "number of eigenvectors kept in the embedding")
	rootCmd.Flags().IntVar(&flagClustersMin, "clusters-min", 2, "smallest k-means cluster count")
	rootCmd.Flags().IntVar(&flagClustersMax, "clusters-max", 10, "largest k-means cluster count")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 0, "k-means seed")
	rootCmd.Flags().IntVar(&flagParallel, "parallel", 0, "categories analyzed concurrently (default: unbounded)")
	rootCmd.MarkFlagRequired("project")
}

func run(cmd *cobra.Command, args []string) error {
	project, err := loader.LoadProject(flagProject)
	if err != nil {
		return err
	}
	defer project.Close()

	cfg := analysis.Config{
		Neighbors:     flagNeighbors,
		EmbeddingDims: flagDims,
		ClustersMin:   flagClustersMin,
		ClustersMax:   flagClustersMax,
		Seed:          flagSeed,
	}

	fmt.Printf("analyzing project %q\n", project.Name)
	results, err := pipeline.AnalyzeProject(cmd.Context(), project, flagCategory, cfg, flagParallel)
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Printf("  category %s: %d attributions, %d clusterings\n",
			result.Category, len(result.Indices), len(result.Clusterings))
	}

	if err := pipeline.WriteDatabase(flagOutput, results); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d categories)\n", flagOutput, len(results))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
