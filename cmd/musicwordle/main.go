package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"musicwordle/internal/di"
	"musicwordle/internal/structures"
)

const releaseVersion = "1.0.0"

func newCmd(flags *structures.CliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "musicwordle",
		Short:         "Guess-the-album game server.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := di.InitApp(flags)
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Run(ctx)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&flags.ConfigPath, "config", "c", "config/config.yml", "path to the YAML config file")
	fs.BoolVarP(&flags.DebugMode, "debug", "d", false, "log to the console as well as to files")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("musicwordle v{{.Version}}\n")
	return cmd
}

func main() {
	log.SetFlags(0)
	flags := &structures.CliFlags{}
	cobra.CheckErr(newCmd(flags).ExecuteContext(context.Background()))
}
