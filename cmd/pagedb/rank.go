package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wilwatikta/aduana-go/internal/pagedb"
	"github.com/wilwatikta/aduana-go/internal/rank"
)

var rankTop int

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run HITS and PageRank and write scores back to the database",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().IntVar(&rankTop, "top", 10, "number of top-scoring pages to print")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	lg := logger()
	pdb, err := openDB(lg)
	if err != nil {
		return err
	}
	defer pdb.Close()

	if err := pdb.UpdateHits(rank.HITS); err != nil {
		return fmt.Errorf("update hits: %w", err)
	}
	if err := pdb.UpdatePageRank(rank.PageRank); err != nil {
		return fmt.Errorf("update page rank: %w", err)
	}

	top, err := pdb.TopByScore(rankTop, pagedb.ScorePageRank)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, sp := range top {
		fmt.Fprintf(w, "%d\t%.6f\t%s\n", sp.Idx, sp.Score, sp.URL)
	}
	return nil
}
