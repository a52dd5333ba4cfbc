package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/pkg/kv"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize statekit storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nand initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dirs, err := resolveConfig(flags)
			if err != nil {
				return err
			}
			configPath := filepath.Join(dirs.Config, configFileExt)
			if err := writeConfigIfMissing(configPath, dirs.Data); err != nil {
				return sysError("write config: %w", err)
			}

			backend, err := kv.Open(cfg)
			if err != nil {
				return sysError("initialize storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return sysError("finalize storage: %w", err)
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				return printJSON(out, map[string]string{
					"backend":     cfg.Backend,
					"config":      configPath,
					"data_dir":    dirs.Data,
					"storage_key": cfg.GetStorageKey(),
				})
			}
			fmt.Fprintf(out, "statekit initialized (%s backend)\n", cfg.Backend)
			fmt.Fprintf(out, "config: %s\n", configPath)
			fmt.Fprintf(out, "data:   %s\n", dirs.Data)
			return nil
		},
	}
}
