package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/cardfill/internal/cli"
	"codeberg.org/snonux/cardfill/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	proc := processor.NewProcessor(flags)

	// Handle --list-models flag
	if flags.ListModels {
		return proc.ListModels(ctx)
	}

	// Handle --normalize flag
	if flags.Normalize {
		return proc.Normalize()
	}

	// Handle --prune-dupes flag
	if flags.PruneDupes {
		return proc.PruneDuplicates()
	}

	if len(args) == 0 {
		return fmt.Errorf("missing argument: number of notes to complete (try 'cardfill 10')")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid note count %q: must be a positive integer", args[0])
	}

	return proc.Run(ctx, n)
}
