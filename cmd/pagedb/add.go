package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wilwatikta/aduana-go/internal/pagedb"
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Ingest one crawled page from JSON",
	Long: `add reads a JSON-encoded CrawledPage from file (or stdin, if no
file is given) and ingests it, printing the list of PageInfo records the
call touched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	r := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var page pagedb.CrawledPage
	if err := json.Unmarshal(data, &page); err != nil {
		return fmt.Errorf("decoding CrawledPage: %w", err)
	}

	lg := logger()
	pdb, err := openDB(lg)
	if err != nil {
		return err
	}
	defer pdb.Close()

	touched, err := pdb.Add(&page)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(touched)
}
