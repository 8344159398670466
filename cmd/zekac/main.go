// Command zekac compiles a rule-authoring document into a sealed scoring
// artifact.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajiang-xyz/ZekaEngine/internal/compiler"
)

func main() {
	var (
		configPath string
		outPath    string
	)

	rootCmd := &cobra.Command{
		Use:           "zekac",
		Short:         "Compile a ZekaEngine rule document into a scoring artifact",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("zekac: creating %s: %w", outPath, err)
			}
			defer f.Close()

			bag, err := compiler.CompileFile(configPath, f, compiler.Options{})
			if err != nil {
				return err
			}
			if bag.HasErrors() {
				src, readErr := os.ReadFile(configPath)
				if readErr == nil {
					fmt.Fprint(os.Stderr, bag.Render(string(src)))
				}
				cmd.SilenceUsage = true
				return fmt.Errorf("zekac: %s has unresolved diagnostics, no artifact written", configPath)
			}

			fmt.Fprintf(os.Stdout, "wrote %s\n", outPath)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to the rule document (required)")
	rootCmd.Flags().StringVar(&outPath, "out", "zeka.dat", "Path to write the compiled artifact")
	rootCmd.MarkFlagRequired("config")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
