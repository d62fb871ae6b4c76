package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

var providersCmd = &cobra.Command{
	Use:   "providers [name]",
	Short: "List supported invoice providers",
	Long: `List the providers factura can fetch invoices from. With a name, show
the credentials the provider expects.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	if providerRegistry == nil {
		return errors.New("provider registry not configured")
	}
	if len(args) == 1 {
		pt, err := providerRegistry.Find(args[0])
		if err != nil {
			return err
		}
		printProvider(cmd, pt)
		return nil
	}

	t := newTable(cmd)
	t.AppendHeader(table.Row{"Name", "Description", "Credentials", "Verification"})
	for _, pt := range providerRegistry.List() {
		labels := make([]string, 0, len(pt.Credentials))
		for _, key := range pt.Credentials {
			labels = append(labels, key.Label)
		}
		t.AppendRow(table.Row{pt.Name, pt.Description, strings.Join(labels, ", "), challengeLabel(pt.ChallengeKind)})
	}
	t.Render()
	return nil
}

func printProvider(cmd *cobra.Command, pt domain.ProviderType) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n  %s\n  Key: %s\n", pt.Name, pt.Description, pt.Key)
	if pt.RequiresChallenge() {
		fmt.Fprintf(out, "  Verification: %s\n", challengeLabel(pt.ChallengeKind))
	}
	if pt.Dateless {
		fmt.Fprintln(out, "  Invoices are not dated; date filters do not apply.")
	}
	fmt.Fprintln(out)

	t := newTable(cmd)
	t.AppendHeader(table.Row{"Flag", "Label", "Required", "Description"})
	for _, key := range pt.Credentials {
		required := "no"
		if key.Required {
			required = "yes"
		}
		t.AppendRow(table.Row{"--" + strings.ReplaceAll(string(key.Field), "_", "-"), key.Label, required, key.Description})
	}
	t.Render()
}

func challengeLabel(kind domain.ChallengeKind) string {
	switch kind {
	case domain.ChallengeCode:
		return "code"
	case domain.ChallengeSecurityQuestion:
		return "security question"
	default:
		return "-"
	}
}
