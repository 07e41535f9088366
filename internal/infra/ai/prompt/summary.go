// Package prompt holds the chat prompts used for cluster summaries.
package prompt

import "fmt"

// GetSystemPrompt returns the system prompt for analysis summaries.
func GetSystemPrompt() string {
	return `You are an assistant for explainable AI research. You are given a
digest of a spectral analysis run over attribution data of a neural network
classifier: the analyzed category, the eigenvalue spectrum and the cluster
sizes of a k-means clustering on the spectral embedding.

Respond with a JSON object of the form:
{
  "summary": "<two to four sentences describing the cluster structure>",
  "observations": ["<notable observation>", ...]
}

Focus on what the eigenvalue gaps and the cluster size distribution suggest
about sub-strategies the classifier might use for this category. Do not
speculate beyond the numbers given.`
}

// GetUserPrompt returns the user prompt for one analysis digest.
func GetUserPrompt(digest string) string {
	return fmt.Sprintf("Summarize the following analysis:\n\n%s", digest)
}
