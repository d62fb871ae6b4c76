package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/i18n"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

var (
	fetchFrom    string
	fetchTo      string
	fetchSites   []string
	fetchNoInput bool
)

// challengeAsker answers a challenge. Swapped in tests.
type challengeAsker interface {
	Ask(c domain.Challenge) (string, error)
}

var newAsker = func(cmd *cobra.Command, cat *i18n.Catalogue) challengeAsker {
	return newChallengePrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), cat)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch invoices from configured websites",
	Long: `Fetch signs in to every configured website, downloads the invoices in
the requested period and stores them for saving or exporting.

Previously fetched invoices are replaced. Websites that ask for a
verification code are prompted on the terminal.`,
	Example: `  factura fetch --from 2024-01-01 --to 2024-03-31
  factura fetch --site Mollie --site "My host"`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "first invoice date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "last invoice date (YYYY-MM-DD)")
	fetchCmd.Flags().StringArrayVar(&fetchSites, "site", nil, "website ID or name (repeatable)")
	fetchCmd.Flags().BoolVar(&fetchNoInput, "no-input", false, "skip websites that ask for a verification code")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	if fetchService == nil {
		return errors.New("fetch service not configured")
	}
	ctx := cmd.Context()
	cat := catalogue()

	dateRange, err := domain.ParseDateRange(fetchFrom, fetchTo)
	if err != nil {
		return err
	}

	req := domain.FetchRequest{Range: dateRange}
	for _, ref := range fetchSites {
		site, err := resolveSite(cmd, ref)
		if err != nil {
			return err
		}
		req.SiteIDs = append(req.SiteIDs, site.ID)
	}

	sink := newConsoleSink(cmd.OutOrStdout(), cat)
	if sub, ok := fetchService.(sinkSubscriber); ok {
		sub.SetSink(sink)
		defer sub.SetSink(nil)
	} else {
		logger.Debug("fetch service does not emit events")
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		answerChallenges(sink, newAsker(cmd, cat), done)
	}()

	result, err := fetchService.Run(ctx, req)
	close(done)
	<-finished
	if errors.Is(err, domain.ErrFetchInProgress) {
		return errors.New(cat.T(i18n.KeyFetchInProgress))
	}
	if err != nil {
		return err
	}

	if len(result.Outcomes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cat.T(i18n.KeyNoSites))
		return nil
	}
	printOutcomes(cmd, cat, result)
	return nil
}

// answerChallenges prompts for each queued challenge until done closes.
// A prompt still waiting for input when the run ends is abandoned.
func answerChallenges(sink *consoleSink, asker challengeAsker, done <-chan struct{}) {
	type reply struct {
		answer string
		err    error
	}

	for {
		select {
		case <-done:
			return
		case c := <-sink.challenges:
			if fetchNoInput {
				fetchService.SkipChallenge(c.SiteID)
				continue
			}

			replies := make(chan reply, 1)
			go func() {
				answer, err := asker.Ask(c)
				replies <- reply{answer, err}
			}()

			var r reply
			select {
			case <-done:
				return
			case r = <-replies:
			}

			if r.err != nil || r.answer == "" {
				if r.err != nil {
					logger.Warn("reading answer for %s: %v", c.SiteName, r.err)
				}
				fetchService.SkipChallenge(c.SiteID)
				continue
			}
			fetchService.ResolveChallenge(c.SiteID, r.answer)
		}
	}
}

func printOutcomes(cmd *cobra.Command, cat *i18n.Catalogue, result *domain.RunResult) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Website", "Result", "Invoices", "Dropped"})
	for _, o := range result.Outcomes {
		t.AppendRow(table.Row{o.SiteName, outcomeText(cat, o), o.Invoices, o.Dropped})
	}
	t.Render()

	fmt.Fprintln(cmd.OutOrStdout(),
		cat.T(i18n.KeyRunSummary, len(result.Invoices), len(result.Outcomes), len(result.Failed())))
}

func outcomeText(cat *i18n.Catalogue, o domain.SiteOutcome) string {
	if o.State == domain.StateSucceeded {
		return "✓ " + cat.T(domain.MsgFetchCompleted)
	}
	text := "✗ " + cat.T(o.Failure.MessageKey())
	if o.Err != nil && o.Failure != domain.KindNotSupported {
		text += " (" + strings.TrimSpace(o.Err.Error()) + ")"
	}
	return text
}
