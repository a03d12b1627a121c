package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"podforge/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the feed source and API keys (or export ANTHROPIC_API_KEY and OPENAI_API_KEY).")
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Target path for the sample configuration")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Print the resolved configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, found, err := config.Load(configFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if found {
				fmt.Fprintf(out, "Configuration file: %s\n", path)
			} else {
				fmt.Fprintln(out, "Configuration file: (none, built-in defaults)")
			}
			fmt.Fprintf(out, "Feed source:        %s\n", cfg.Feed.SourceType)
			fmt.Fprintf(out, "Data directory:     %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Database:           %s\n", cfg.Paths.DatabasePath)
			fmt.Fprintf(out, "Outputs:            %s\n", cfg.Paths.OutputsDir)
			fmt.Fprintf(out, "Whisper model:      %s\n", cfg.Whisper.Model)
			fmt.Fprintf(out, "LLM model:          %s\n", cfg.LLM.Model)
			fmt.Fprintf(out, "Chunk size:         %d (overlap %.2f)\n", cfg.Chunking.ChunkSize, cfg.Chunking.OverlapRatio)
			fmt.Fprintf(out, "Retrieval top-k:    %d\n", cfg.Retrieval.TopK)
			fmt.Fprintf(out, "Dry run:            %t\n", cfg.LLM.DryRun)
			return nil
		},
	}

	cmd.Flags().StringVar(&configFlag, "file", "", "Configuration file to inspect")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the podforge version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "podforge %s\n", version)
			return nil
		},
	}
}
