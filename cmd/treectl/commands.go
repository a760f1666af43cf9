package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"code.byted.org/khicago/treestore"
)

func treeCommands() []*cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key, assembling nested objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			literal, _ := cmd.Flags().GetBool("literal")
			v, err := store.GetValue(cmd.Context(), args[0], treestore.ReadOptions{Tree: !literal})
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v, outputFormat())
		},
	}
	getCmd.Flags().Bool("literal", false, "read only the literal stored at the key")

	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key; JSON values are decoded, anything else is a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			literal, _ := cmd.Flags().GetBool("literal")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			opts := treestore.WriteOptions{Tree: !literal, TTL: ttl}
			if err := store.SetValue(cmd.Context(), args[0], parseValue(args[1]), opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set successfully")
			return nil
		},
	}
	setCmd.Flags().Bool("literal", false, "store objects as a single JSON literal")
	setCmd.Flags().Duration("ttl", 0, "backend expiry for literal values (e.g. 30s)")

	mergeCmd := &cobra.Command{
		Use:   "merge [key] [value]",
		Short: "Merges an object into the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Merge(cmd.Context(), args[0], parseValue(args[1])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "merge successfully")
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear [key]",
		Short: "Removes a key and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			literal, _ := cmd.Flags().GetBool("literal")
			n, err := store.ClearValue(cmd.Context(), args[0], treestore.ClearOptions{Tree: !literal})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d key(s)\n", n)
			return nil
		},
	}
	clearCmd.Flags().Bool("literal", false, "delete only the literal stored at the key")

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Prints the whole namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v, outputFormat())
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Replaces the whole namespace with a JSON or YAML document (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			doc, err := decodeDocument(data, documentFormat(args[0]))
			if err != nil {
				return err
			}
			if err := store.Save(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved successfully")
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Removes every key of the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reset successfully")
			return nil
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch [key]",
		Short: "Polls a key and prints it whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			return watch(cmd.Context(), cmd.OutOrStdout(), args[0], interval)
		},
	}
	watchCmd.Flags().Duration("interval", 5*time.Second, "poll interval")

	cmds := []*cobra.Command{getCmd, setCmd, mergeCmd, clearCmd, loadCmd, saveCmd, resetCmd, watchCmd}
	for _, c := range cmds {
		c.PersistentPreRunE = setupStore
	}
	// cached values are trusted for one poll interval unless --cache-ttl is given
	watchCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("cache-ttl") {
			interval, _ := cmd.Flags().GetDuration("interval")
			_ = cmd.Flags().Set("cache-ttl", interval.String())
		}
		return setupStore(cmd, args)
	}
	return cmds
}
