// Package cmd defines the campusqa command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "campusqa",
	Short: "campusqa - retrieval-augmented campus Q&A service",
	Long: `campusqa answers free-form questions about a campus document corpus.

Documents are chunked, embedded and indexed in a local vector store;
questions are answered by retrieving relevant passages and conditioning
a language model on them. Run "campusqa serve" for the HTTP service,
"campusqa index" to (re)build the knowledge base, or "campusqa ask" for
one-off questions from the terminal.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
