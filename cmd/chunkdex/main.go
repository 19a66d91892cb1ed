// Command chunkdex provisions search indexes for a chunk collection and
// serves model and index diagnostics.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
