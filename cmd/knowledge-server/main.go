// Command knowledge-server runs the self-hosted semantic knowledge
// server: a thin main that delegates straight to the root cobra
// command.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
