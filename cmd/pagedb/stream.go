package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wilwatikta/aduana-go/internal/pagedb"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Drain the link stream to stdout as from,to pairs",
	RunE:  runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	lg := logger()
	pdb, err := openDB(lg)
	if err != nil {
		return err
	}
	defer pdb.Close()

	ls := pdb.NewLinkStream()
	defer ls.Close()

	w := cmd.OutOrStdout()
	var e pagedb.LinkEdge
	for {
		switch ls.Next(&e) {
		case pagedb.StateNext:
			fmt.Fprintf(w, "%d,%d\n", e.From, e.To)
		case pagedb.StateEnd:
			return nil
		default:
			return fmt.Errorf("link stream error")
		}
	}
}
