// cmd/tools/discoveryctl/policy.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/pkg/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect vocabulary policy files",
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check that a policy file loads and is complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := policy.Load(args[0])
		if err != nil {
			return apperrors.NewPolicyInvalidError(err.Error())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d categories, %d product terms, %d suggestions)\n",
			args[0], len(p.Categories), len(p.Products), len(p.Suggestions))
		return nil
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the effective policy as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		p, err := policy.Load(path)
		if err != nil {
			return err
		}
		data, err := p.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	policyCmd.AddCommand(policyValidateCmd, policyShowCmd)
	rootCmd.AddCommand(policyCmd)
}
