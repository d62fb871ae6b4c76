package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/i18n"
)

var siteCmd = &cobra.Command{
	Use:     "site",
	Aliases: []string{"sites"},
	Short:   "Manage invoice websites",
	Long: `Add, inspect and remove the websites invoices are fetched from.

Sites run in the order they were added. Credentials may be given inline
or as references: env:NAME reads an environment variable, file:PATH reads
a file.`,
	RunE: runSiteList,
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured websites",
	RunE:  runSiteList,
}

var siteShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show a website",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteShow,
}

var siteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a website",
	Long: `Add a website. Missing required credentials are asked for
interactively; secrets are read without echo.`,
	Example: `  factura site add --provider mollie --name Mollie --password env:MOLLIE_KEY
  factura site add --provider whmcs --name "My host" --username me@example.com`,
	RunE: runSiteAdd,
}

var siteUpdateCmd = &cobra.Command{
	Use:   "update <id|name>",
	Short: "Change a website's name or credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteUpdate,
}

var siteRemoveCmd = &cobra.Command{
	Use:     "remove <id|name>",
	Aliases: []string{"rm"},
	Short:   "Remove a website",
	Args:    cobra.ExactArgs(1),
	RunE:    runSiteRemove,
}

var siteResetCmd = &cobra.Command{
	Use:   "reset <id|name>",
	Short: "Clear the failure flags of a website",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteReset,
}

var siteFlags struct {
	name      string
	provider  string
	username  string
	password  string
	accountID string
}

func init() {
	for _, c := range []*cobra.Command{siteAddCmd, siteUpdateCmd} {
		c.Flags().StringVar(&siteFlags.name, "name", "", "display name")
		c.Flags().StringVar(&siteFlags.username, "username", "", "username, login or client ID")
		c.Flags().StringVar(&siteFlags.password, "password", "", "password, API key or secret")
		c.Flags().StringVar(&siteFlags.accountID, "account-id", "", "account ID, token or portal URL")
	}
	siteAddCmd.Flags().StringVar(&siteFlags.provider, "provider", "", "provider key or name (see 'factura providers')")
	_ = siteAddCmd.MarkFlagRequired("provider")

	siteCmd.AddCommand(siteListCmd)
	siteCmd.AddCommand(siteShowCmd)
	siteCmd.AddCommand(siteAddCmd)
	siteCmd.AddCommand(siteUpdateCmd)
	siteCmd.AddCommand(siteRemoveCmd)
	siteCmd.AddCommand(siteResetCmd)
	rootCmd.AddCommand(siteCmd)
}

// resolveSite finds a site by ID or, case-insensitively, by name.
func resolveSite(cmd *cobra.Command, ref string) (*domain.Site, error) {
	if siteService == nil {
		return nil, errors.New("site service not configured")
	}
	sites, err := siteService.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range sites {
		if sites[i].ID == ref {
			return &sites[i], nil
		}
	}
	for i := range sites {
		if strings.EqualFold(sites[i].Name, ref) {
			return &sites[i], nil
		}
	}
	return nil, fmt.Errorf("%w: website %q", domain.ErrNotFound, ref)
}

func providerName(key string) string {
	if providerRegistry == nil {
		return key
	}
	pt, err := providerRegistry.Get(key)
	if err != nil {
		return key
	}
	return pt.Name
}

func siteStatus(site domain.Site) string {
	switch {
	case site.AuthFailed && site.FetchFailed:
		return "auth + fetch failed"
	case site.AuthFailed:
		return "auth failed"
	case site.FetchFailed:
		return "fetch failed"
	default:
		return "ok"
	}
}

func runSiteList(cmd *cobra.Command, _ []string) error {
	if siteService == nil {
		return errors.New("site service not configured")
	}
	sites, err := siteService.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeyNoSites))
		return nil
	}

	t := newTable(cmd)
	t.AppendHeader(table.Row{"ID", "Name", "Provider", "Username", "Status"})
	for _, s := range sites {
		t.AppendRow(table.Row{s.ID, s.Name, providerName(s.ProviderKey), s.Credentials.Username, siteStatus(s)})
	}
	t.Render()
	return nil
}

func runSiteShow(cmd *cobra.Command, args []string) error {
	site, err := resolveSite(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", site.ID)
	fmt.Fprintf(out, "Name:        %s\n", site.Name)
	fmt.Fprintf(out, "Provider:    %s\n", providerName(site.ProviderKey))
	fmt.Fprintf(out, "Key:         %s\n", site.ProviderKey)
	fmt.Fprintf(out, "Username:    %s\n", site.Credentials.Username)
	fmt.Fprintf(out, "Password:    %s\n", displaySecret(site.Credentials.Password))
	fmt.Fprintf(out, "Account ID:  %s\n", displaySecret(site.Credentials.AccountID))
	fmt.Fprintf(out, "Status:      %s\n", siteStatus(*site))
	fmt.Fprintf(out, "Added:       %s\n", site.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}

// displaySecret masks inline secrets but shows env: and file: references.
func displaySecret(value string) string {
	if strings.HasPrefix(value, "env:") || strings.HasPrefix(value, "file:") {
		return value
	}
	return domain.Mask(value)
}

func runSiteAdd(cmd *cobra.Command, _ []string) error {
	if siteService == nil {
		return errors.New("site service not configured")
	}
	if providerRegistry == nil {
		return errors.New("provider registry not configured")
	}

	pt, err := providerRegistry.Find(siteFlags.provider)
	if err != nil {
		return err
	}

	site := domain.Site{
		Name:        strings.TrimSpace(siteFlags.name),
		ProviderKey: pt.Key,
		Credentials: domain.Credentials{
			Username:  siteFlags.username,
			Password:  siteFlags.password,
			AccountID: siteFlags.accountID,
		},
	}
	if site.Name == "" {
		site.Name = pt.Name
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	for _, key := range pt.Credentials {
		if !key.Required || site.Credentials.Get(key.Field) != "" {
			continue
		}
		value, err := readCredential(cmd, reader, key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key.Label, err)
		}
		site.Credentials.Set(key.Field, value)
	}

	added, err := siteService.Add(cmd.Context(), site)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeySiteAdded, added.Name, added.ID))
	return nil
}

// readCredential asks for one credential field. Secrets typed on a
// terminal are not echoed.
var readCredential = func(cmd *cobra.Command, reader *bufio.Reader, key domain.CredentialKey) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", key.Label)

	if f, ok := cmd.InOrStdin().(*os.File); ok && key.Secret && term.IsTerminal(int(f.Fd())) {
		value, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return strings.TrimSpace(string(value)), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runSiteUpdate(cmd *cobra.Command, args []string) error {
	site, err := resolveSite(cmd, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		site.Name = strings.TrimSpace(siteFlags.name)
	}
	if flags.Changed("username") {
		site.Credentials.Username = siteFlags.username
	}
	if flags.Changed("password") {
		site.Credentials.Password = siteFlags.password
	}
	if flags.Changed("account-id") {
		site.Credentials.AccountID = siteFlags.accountID
	}

	if err := siteService.Update(cmd.Context(), *site); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated website %s\n", site.Name)
	return nil
}

func runSiteRemove(cmd *cobra.Command, args []string) error {
	site, err := resolveSite(cmd, args[0])
	if err != nil {
		return err
	}
	if err := siteService.Remove(cmd.Context(), site.ID); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeySiteRemoved, site.Name))
	return nil
}

func runSiteReset(cmd *cobra.Command, args []string) error {
	site, err := resolveSite(cmd, args[0])
	if err != nil {
		return err
	}
	if err := siteService.ResetFlags(cmd.Context(), site.ID); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeyFlagsReset, site.Name))
	return nil
}
