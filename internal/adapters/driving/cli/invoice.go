package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/i18n"
)

var (
	invoiceSite string
	invoiceDir  string
)

var invoiceCmd = &cobra.Command{
	Use:     "invoice",
	Aliases: []string{"invoices"},
	Short:   "Inspect and save fetched invoices",
	RunE:    runInvoiceList,
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fetched invoices",
	RunE:  runInvoiceList,
}

var invoiceSaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save one invoice",
	Long: `Save one invoice under its configured file name. Without --dir the
output directory from the settings is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoiceSave,
}

var invoiceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save all fetched invoices",
	RunE:  runInvoiceExport,
}

func init() {
	invoiceListCmd.Flags().StringVar(&invoiceSite, "site", "", "only invoices of this website (ID or name)")
	invoiceSaveCmd.Flags().StringVar(&invoiceDir, "dir", "", "output directory")
	invoiceExportCmd.Flags().StringVar(&invoiceDir, "dir", "", "output directory")

	invoiceCmd.AddCommand(invoiceListCmd)
	invoiceCmd.AddCommand(invoiceSaveCmd)
	invoiceCmd.AddCommand(invoiceExportCmd)
	rootCmd.AddCommand(invoiceCmd)
}

func runInvoiceList(cmd *cobra.Command, _ []string) error {
	if invoiceService == nil {
		return errors.New("invoice service not configured")
	}

	var (
		invoices []domain.Invoice
		err      error
	)
	if invoiceSite != "" {
		site, serr := resolveSite(cmd, invoiceSite)
		if serr != nil {
			return serr
		}
		invoices, err = invoiceService.ListBySite(cmd.Context(), site.ID)
	} else {
		invoices, err = invoiceService.List(cmd.Context())
	}
	if err != nil {
		return err
	}
	if len(invoices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeyNoInvoices))
		return nil
	}

	t := newTable(cmd)
	t.AppendHeader(table.Row{"ID", "Website", "Date", "Description", "File", "Size"})
	for _, inv := range invoices {
		name, err := invoiceService.FileName(inv)
		if err != nil {
			name = inv.FileName
		}
		date := "-"
		if inv.Date != nil {
			date = inv.Date.Format(domain.DateLayout)
		}
		t.AppendRow(table.Row{inv.ID, inv.SiteName, date, inv.Description, name, humanize.Bytes(uint64(inv.Size))})
	}
	t.Render()
	return nil
}

func runInvoiceSave(cmd *cobra.Command, args []string) error {
	if invoiceService == nil {
		return errors.New("invoice service not configured")
	}
	path, err := invoiceService.Save(cmd.Context(), args[0], invoiceDir)
	if errors.Is(err, domain.ErrDownloadUnavailable) {
		return errors.New(catalogue().T(domain.MsgDownloadUnavailable))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeyInvoiceSaved, path))
	return nil
}

func runInvoiceExport(cmd *cobra.Command, _ []string) error {
	if invoiceService == nil {
		return errors.New("invoice service not configured")
	}
	paths, err := invoiceService.ExportAll(cmd.Context(), invoiceDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeyNoInvoices))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), catalogue().T(i18n.KeyInvoicesSaved, len(paths), filepath.Dir(paths[0])))
	return nil
}
