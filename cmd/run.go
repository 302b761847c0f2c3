package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/krun-dev/krun/internal/cache"
	"github.com/krun-dev/krun/internal/compiler"
	"github.com/krun-dev/krun/internal/config"
	"github.com/krun-dev/krun/internal/deps"
	"github.com/krun-dev/krun/internal/script"
	"github.com/krun-dev/krun/internal/toolchain"
)

// Seam for tests: replaced with a fake to exercise the pipeline without a
// real toolchain.
var newRunner = func() toolchain.Runner {
	return toolchain.NewRunner()
}

// runScript executes the whole pipeline for one script reference and prints
// the final runtime invocation line on stdout.
func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().LoadForRun(cmd, args)
	if err != nil {
		return err
	}

	ref := args[0]

	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer store.Close()

	src, err := script.NewResolver(store.Root()).Resolve(ref)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Resolved: %s (%s)\nDigest: %s\n", src.Path, src.Kind, src.Digest)
	}

	dirs, err := script.ParseDirectives(src)
	if err != nil {
		return err
	}

	runner := newRunner()

	depClasspath, err := deps.NewToolResolver(cfg.ResolverPath, runner, store.Journal()).Resolve(dirs.Deps)
	if err != nil {
		return err
	}

	orchestrator := compiler.NewOrchestrator(store, runner, cfg.CompilerPath, cfg.ArchiverPath)
	orchestrator.Verbose = cfg.Verbose

	artifact, err := orchestrator.Ensure(src, dirs, depClasspath)
	if err != nil {
		return err
	}

	kotlinHome := cfg.KotlinHome
	if kotlinHome == "" {
		kotlinHome, err = toolchain.InferKotlinHome(cfg.CompilerPath)
		if err != nil {
			return err
		}
	}

	forwarded := compiler.ForwardedArgs(os.Args, src.RawRef)
	command := compiler.BuildCommand(cfg.RuntimePath, artifact, kotlinHome, depClasspath, dirs.KotlinOpts, forwarded)

	fmt.Fprintln(cmd.OutOrStdout(), command.Line())

	return nil
}
