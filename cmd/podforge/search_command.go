package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podforge/internal/retrieval"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var topKFlag int

	cmd := &cobra.Command{
		Use:   "search <episode> <query>",
		Short: "Run a retrieval query against an episode's chunk index",
		Long: `Run the same lexical retrieval the generator uses, for debugging.
The query is tokenized like an episode title: stopwords and short words are
dropped and the remaining terms are OR-combined.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			episodeID := args[0]
			query := strings.Join(args[1:], " ")
			terms := retrieval.BuildQueryTerms(query)

			chunks, err := retrieval.Retrieve(cmd.Context(), store, episodeID, terms, topKFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Query terms: %s\n", strings.Join(terms, " OR "))
			if len(chunks) == 0 {
				fmt.Fprintln(out, "No matching chunks.")
				return nil
			}
			for _, chunk := range chunks {
				tag := retrieval.CitationTag(episodeID, chunk.Ordinal)
				fmt.Fprintf(out, "%2d. %s %s\n", chunk.Rank, tag, truncate(chunk.Text, 100))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topKFlag, "top-k", retrieval.DefaultTopK, "Number of chunks to retrieve")
	return cmd
}
