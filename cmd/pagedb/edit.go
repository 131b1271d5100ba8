package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wilwatikta/aduana-go/internal/dbspec"
	"github.com/wilwatikta/aduana-go/internal/pagedb"
	"github.com/wilwatikta/aduana-go/internal/storage"
	"rsc.io/ordered"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Interactively inspect or patch a database",
	Long: `edit starts a line-oriented REPL for poking at a database's raw
sub-databases: "list <sub>" to enumerate a sub-database, "get <sub>
<index>" to print one entry, "set <sub> <index> <hex>" to overwrite an
entry with raw bytes, and "delete <sub> <index>" to remove one. This is
intended only for human inspection and debugging, never for programmatic
use; there is no confirmation or undo.`,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

var editableSubs = map[string]string{
	"info":      "info",
	"hash2idx":  "hash2idx",
	"hash2info": "hash2info",
	"links":     "links",
	"hits":      "hits",
	"pagerank":  "pagerank",
}

func runEdit(cmd *cobra.Command, args []string) error {
	lg := logger()
	spec, err := dbspec.Parse(viper.GetString("db"))
	if err != nil {
		return err
	}
	db, err := spec.Open(lg)
	if err != nil {
		return err
	}
	defer db.Close()

	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	for {
		fmt.Fprint(out, "pagedb> ")
		if !in.Scan() {
			return nil
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "list":
			err = editList(db, out, fields)
		case "get":
			err = editGet(db, out, fields)
		case "set":
			err = editSet(db, fields)
		case "delete":
			err = editDelete(db, fields)
		case "npages":
			pdb := pagedb.New(lg, db)
			fmt.Fprintln(out, pdb.N())
		default:
			err = fmt.Errorf("unknown command %q; want list/get/set/delete/npages/quit", fields[0])
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func subOrErr(fields []string, pos int) (string, error) {
	if pos >= len(fields) {
		return "", fmt.Errorf("missing sub-database name")
	}
	sub, ok := editableSubs[fields[pos]]
	if !ok {
		return "", fmt.Errorf("unknown sub-database %q", fields[pos])
	}
	return sub, nil
}

func editList(db storage.DB, out io.Writer, fields []string) error {
	sub, err := subOrErr(fields, 1)
	if err != nil {
		return err
	}
	start, end := subKeyRange(sub)
	for k, vf := range db.Scan(start, end) {
		fmt.Fprintf(out, "%s = %s\n", storage.Fmt(k), hex.EncodeToString(vf()))
	}
	return nil
}

func editGet(db storage.DB, out io.Writer, fields []string) error {
	sub, key, err := subAndKey(fields)
	if err != nil {
		return err
	}
	v, ok := db.Get(key)
	if !ok {
		fmt.Fprintln(out, "(absent)")
		return nil
	}
	fmt.Fprintf(out, "%s (sub %s)\n", hex.EncodeToString(v), sub)
	return nil
}

func editSet(db storage.DB, fields []string) error {
	if len(fields) < 4 {
		return fmt.Errorf("usage: set <sub> <index> <hex>")
	}
	_, key, err := subAndKey(fields[:3])
	if err != nil {
		return err
	}
	val, err := hex.DecodeString(fields[3])
	if err != nil {
		return fmt.Errorf("decoding hex value: %w", err)
	}
	db.Set(key, val)
	return nil
}

func editDelete(db storage.DB, fields []string) error {
	_, key, err := subAndKey(fields)
	if err != nil {
		return err
	}
	db.Delete(key)
	return nil
}

// subAndKey parses "<cmd> <sub> <index>" into the sub-database's internal
// name and the database key it refers to. Keys are always "<tag>
// <uint64>", encoded with [rsc.io/ordered] the same way [pagedb] encodes
// them; info's sole key, "n_pages", is not reachable through edit since
// it has no numeric index (use npages instead).
func subAndKey(fields []string) (sub string, key []byte, err error) {
	sub, err = subOrErr(fields, 1)
	if err != nil {
		return "", nil, err
	}
	if len(fields) < 3 {
		return "", nil, fmt.Errorf("missing index")
	}
	idx, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return "", nil, fmt.Errorf("parsing index %q: %w", fields[2], err)
	}
	return sub, ordered.Encode(sub, idx), nil
}

// subKeyRange returns the inclusive key range covering every key tagged
// with sub.
func subKeyRange(sub string) (start, end []byte) {
	return ordered.Encode(sub), ordered.Encode(sub, ordered.Inf)
}
