package main

import (
	"encoding/json"
	"fmt"

	"confnode/internal/codec"

	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node <name>",
	Short: "Print the data hash of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, _ := cmd.Flags().GetString("environment")
		format, _ := cmd.Flags().GetString("format")

		c, err := codec.ForFormat(format)
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		node, err := a.svc.Find(cmd.Context(), args[0], env)
		if err != nil {
			return err
		}
		data, err := node.ToData()
		if err != nil {
			return err
		}
		return c.Export(data, cmd.OutOrStdout())
	},
}

var namesCmd = &cobra.Command{
	Use:   "names <name>",
	Short: "Print the candidate names used to match a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, _ := cmd.Flags().GetString("environment")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.svc.Names(cmd.Context(), args[0], env)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var factsCmd = &cobra.Command{
	Use:   "facts <name>",
	Short: "Print the stored facts of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, _ := cmd.Flags().GetString("environment")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.svc.Facts(cmd.Context(), args[0], env)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	},
}

func init() {
	nodeCmd.Flags().StringP("environment", "e", "", "Environment to apply when the node has none")
	nodeCmd.Flags().StringP("format", "f", "json", "Output format (json, yaml)")
	namesCmd.Flags().StringP("environment", "e", "", "Environment to apply when the node has none")
	factsCmd.Flags().StringP("environment", "e", "", "Environment used to scope the facts lookup")

	rootCmd.AddCommand(nodeCmd, namesCmd, factsCmd)
}
