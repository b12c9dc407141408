// ABOUTME: Entry point for the quebec console
// ABOUTME: Terminal administration client for the Quebec gateway control plane

package main

import (
	"fmt"
	"os"

	"github.com/lyonmu/quebec/console/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
