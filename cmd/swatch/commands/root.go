// Package commands implements the CLI commands for swatch.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/swatch/internal/app"
	"go.trai.ch/swatch/internal/build"
)

// CLI represents the command line interface for swatch.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, cwd string, opts app.BuildOptions) error
	Clean(ctx context.Context, cwd string, opts app.CleanOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "swatch",
		Short:         "Build and serve a style guide",
		Long:          "Without a command, swatch cleans the destination and runs the full build.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.build(cmd, nil)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to swatch.yaml (default: search upwards from the working directory)")
	flags.Bool("dev", false, "Development mode: no minification, then watch and serve (also SWATCH_DEV=1)")
	flags.BoolP("no-cache", "n", false, "Bypass the build cache and force execution")
	flags.Bool("no-clean", false, "Keep the destination tree instead of removing it first")
	flags.IntP("parallelism", "j", 0, "Maximum number of tasks running at once (default: number of CPUs)")

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newTestCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) build(cmd *cobra.Command, tasks []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	dev, _ := flags.GetBool("dev")
	noCache, _ := flags.GetBool("no-cache")
	noClean, _ := flags.GetBool("no-clean")
	parallelism, _ := flags.GetInt("parallelism")

	return c.app.Build(cmd.Context(), cwd, app.BuildOptions{
		ConfigPath:  configPath,
		Dev:         dev,
		Tasks:       tasks,
		NoCache:     noCache,
		NoClean:     noClean,
		Parallelism: parallelism,
	})
}
