package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/krun-dev/krun/internal/codes"
	"github.com/krun-dev/krun/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "krun <script> [script args...]",
	Short:        "Run Kotlin scripts through a compile cache",
	Long: `Run a Kotlin script (.kts), class source (.kt), URL, stdin stream or inline
snippet directly. The source is compiled once into a digest-keyed cached jar
and the final kotlin invocation is printed for the calling shell to execute.`,
	RunE:         runScript,
	SilenceUsage: true,
	Args:         cobra.MinimumNArgs(1),
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		code := codes.ExitCode(err)
		fmt.Fprintln(os.Stderr, codes.Describe(code))
		os.Exit(code)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache directory for compiled artifacts")
	// Flags after the script reference belong to the script, not to krun.
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(cacheCmd)
}
