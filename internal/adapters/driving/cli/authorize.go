package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var siteAuthorizeCmd = &cobra.Command{
	Use:   "authorize <id|name>",
	Short: "Sign in to a website through the browser",
	Long: `Open the provider's consent page in the browser and store the resulting
refresh token on the website. Used by Gmail, which needs a client ID and
secret to be configured first.`,
	Example: `  factura site add --provider gmail --name Mail --username <client id> --password env:GMAIL_SECRET
  factura site authorize Mail`,
	Args: cobra.ExactArgs(1),
	RunE: runSiteAuthorize,
}

func init() {
	siteCmd.AddCommand(siteAuthorizeCmd)
}

func runSiteAuthorize(cmd *cobra.Command, args []string) error {
	if siteAuthorizer == nil {
		return errors.New("browser authorization not configured")
	}
	site, err := resolveSite(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	token, err := siteAuthorizer.Authorize(cmd.Context(), *site, func(url string) {
		fmt.Fprintf(out, "Opening the browser. If it does not open, visit:\n\n  %s\n\n", url)
	})
	if err != nil {
		return fmt.Errorf("authorize %s: %w", site.Name, err)
	}

	site.Credentials.AccountID = token
	if err := siteService.Update(cmd.Context(), *site); err != nil {
		return err
	}
	if site.AuthFailed {
		if err := siteService.ResetFlags(cmd.Context(), site.ID); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Authorized %s\n", site.Name)
	return nil
}
