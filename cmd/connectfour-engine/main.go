package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "connectfour-engine",
		Short: "Connect Four game-command engine",
	}

	root.AddCommand(newCreateGameCmd())
	root.AddCommand(newEndGameCmd())
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
