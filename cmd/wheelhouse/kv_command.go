package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wheelhouse/internal/kvstore"
)

func newKVCommand(ctx *commandContext) *cobra.Command {
	kvCmd := &cobra.Command{
		Use:   "kv",
		Short: "Read and write the application config.yaml",
	}
	kvCmd.AddCommand(newKVGetCommand(ctx))
	kvCmd.AddCommand(newKVSetCommand(ctx))
	return kvCmd
}

func openKV(ctx *commandContext) (*kvstore.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return kvstore.Open(cfg.Paths.KVStore)
}

func newKVGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a value by dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKV(ctx)
			if err != nil {
				return err
			}
			value, err := store.Get(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newKVSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value by dotted key",
		Long: `Set a value by dotted key. The value is parsed as a YAML scalar, so
"true" and "3" are stored as a boolean and an integer; quote them to keep
strings.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKV(ctx)
			if err != nil {
				return err
			}
			var value any
			if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil || value == nil {
				value = args[1]
			}
			if err := store.Set(args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v (%s)\n", args[0], value, store.Path())
			return nil
		},
	}
}
