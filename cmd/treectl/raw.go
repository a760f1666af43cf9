package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"code.byted.org/khicago/treestore"
)

var (
	// rawCommands groups direct backend access that bypasses the tree
	rawCommands = &cobra.Command{
		Use:               "raw",
		Short:             "Raw key/value operations inside the namespace",
		PersistentPreRunE: setupStore,
	}

	rawGetCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads a raw value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := scoped(cmd).Get(cmd.Context(), args[0])
			if errors.Is(err, treestore.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=false\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=true, value=%s\n", args[0], data)
			return nil
		},
	}
	rawSetCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets a raw value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if err := scoped(cmd).Set(cmd.Context(), args[0], []byte(args[1]), ttl); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set successfully")
			return nil
		},
	}
	rawDelCmd = &cobra.Command{
		Use:   "del [key...]",
		Short: "Deletes raw keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := scoped(cmd).Del(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d key(s)\n", n)
			return nil
		},
	}
	rawMembersCmd = &cobra.Command{
		Use:   "smembers [key]",
		Short: "Lists the members of a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := scoped(cmd).SMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), members, outputFormat())
		},
	}
	rawIncrCmd = &cobra.Command{
		Use:   "zincrby [key] [increment] [member]",
		Short: "Increments a member's score in a sorted set",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			incr, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("increment must be a number: %w", err)
			}
			score, err := scoped(cmd).ZIncrBy(cmd.Context(), args[0], incr, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%g\n", args[2], score)
			return nil
		},
	}
	rawExpireCmd = &cobra.Command{
		Use:   "expire [key] [ttl]",
		Short: "Sets the expiry of a raw key (e.g. 90s)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("ttl must be a duration: %w", err)
			}
			ok, err := scoped(cmd).Expire(cmd.Context(), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%t\n", args[0], ok)
			return nil
		},
	}
)

func init() {
	rawCommands.PersistentFlags().String("scope", "", "namespace nested under --namespace")
	rawSetCmd.Flags().Duration("ttl", 0, "expiry of the key (0 keeps it forever)")

	rawCommands.AddCommand(rawGetCmd)
	rawCommands.AddCommand(rawSetCmd)
	rawCommands.AddCommand(rawDelCmd)
	rawCommands.AddCommand(rawMembersCmd)
	rawCommands.AddCommand(rawIncrCmd)
	rawCommands.AddCommand(rawExpireCmd)
}

func scoped(cmd *cobra.Command) *treestore.ScopedClient {
	scope, _ := cmd.Flags().GetString("scope")
	return store.Client(scope)
}
