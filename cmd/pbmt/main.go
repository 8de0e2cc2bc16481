package main

import (
	"fmt"
	"os"

	"github.com/gordian-engine/pbmt/cmd/pbmt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
