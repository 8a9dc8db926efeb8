package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"riftcap/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect or create the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, fromFile, err := config.Load(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if fromFile {
				fmt.Fprintf(out, "Config file: %s\n", resolved)
			} else {
				fmt.Fprintf(out, "Config file: %s (not found, using defaults)\n", resolved)
			}
			fmt.Fprintf(out, "League topic: %s\n", cfg.League.Topic)
			fmt.Fprintf(out, "League lockfile: %s\n", orDash(cfg.LockfilePath()))
			fmt.Fprintf(out, "OBS endpoint: %s:%d\n", cfg.OBS.Host, cfg.OBS.Port)
			fmt.Fprintf(out, "OBS profile: %s\n", orDash(cfg.OBS.ProfileName))
			fmt.Fprintf(out, "Filename prefix: %s\n", cfg.Recording.FilenamePrefix)
			fmt.Fprintf(out, "Ignored queues: %s\n", strings.Join(cfg.Recording.IgnoredQueueTypes, ", "))
			fmt.Fprintf(out, "Ntfy topic: %s\n", orDash(cfg.Notifications.NtfyTopic))
			fmt.Fprintf(out, "Log dir: %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Data dir: %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Socket: %s\n", cfg.SocketPath())
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var path string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(path)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}
			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination path (defaults to the standard config location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")
	return cmd
}
