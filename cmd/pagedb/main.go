// Command pagedb is a command-line front end for the page database: it
// ingests crawled pages from JSON, looks up PageInfo records, drains the
// link stream, runs HITS/PageRank, and offers a small set of devtools for
// inspecting or copying a database directory.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
