package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/marginalia/internal/output"
	"github.com/jackzampolin/marginalia/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if output.IsStructured() {
			return output.Print(map[string]string{
				"release": version.GitRelease,
				"go":      version.GoInfo,
				"commit":  version.GitCommit,
				"date":    version.GitCommitDate,
			})
		}
		fmt.Printf("marginalia %s\n", version.GitRelease)
		fmt.Printf("  Go:     %s\n", version.GoInfo)
		fmt.Printf("  Commit: %s\n", version.GitCommit)
		fmt.Printf("  Date:   %s\n", version.GitCommitDate)
		return nil
	},
}
