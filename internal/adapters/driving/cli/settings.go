package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change how invoices are named, where they are saved and how
fetching behaves.

File name format placeholders:
  [suggested-filename]  name suggested by the website
  [description]         invoice number or label
  [date]                invoice date in the date format
  [website-name]        name of the website`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Change one setting",
	Example: `  factura settings set output.format "[website-name] [date] [description]"
  factura settings set output.language nl`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore the default of one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingValues renders settings by config key.
func settingValues(s *domain.Settings) map[string]string {
	return map[string]string{
		"output.format":                   s.Output.Format,
		"output.date_format":              s.Output.DateFormat,
		"output.language":                 s.Output.Language.String(),
		"output.directory":                s.Output.Directory,
		"debug":                           strconv.FormatBool(s.Debug),
		"fetch.download_concurrency":      strconv.Itoa(s.Fetch.DownloadConcurrency),
		"fetch.max_retries":               strconv.Itoa(s.Fetch.MaxRetries),
		"fetch.rate_limit_margin_seconds": seconds(s.Fetch.RateLimitMargin),
		"fetch.rate_limit_min_remaining":  strconv.Itoa(s.Fetch.RateLimitMinRemaining),
		"fetch.request_timeout_seconds":   seconds(s.Fetch.RequestTimeout),
		"fetch.challenge_timeout_seconds": seconds(s.Fetch.ChallengeTimeout),
		"download.validate_pdf":           strconv.FormatBool(s.Fetch.ValidatePDF),
	}
}

func seconds(d time.Duration) string {
	return strconv.Itoa(int(d / time.Second))
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	values := settingValues(settings)

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Output]")
	cmd.Printf("  File name format: %s\n", settings.Output.Format)
	cmd.Printf("  Date format: %s\n", settings.Output.DateFormat)
	cmd.Printf("  Language: %s\n", settings.Output.Language)
	cmd.Printf("  Directory: %s\n", settings.Output.Directory)
	cmd.Println()

	cmd.Println("[Fetch]")
	cmd.Printf("  Download concurrency: %d\n", settings.Fetch.DownloadConcurrency)
	cmd.Printf("  Max retries: %d\n", settings.Fetch.MaxRetries)
	cmd.Printf("  Rate limit margin: %ss\n", values["fetch.rate_limit_margin_seconds"])
	cmd.Printf("  Rate limit min remaining: %d\n", settings.Fetch.RateLimitMinRemaining)
	cmd.Printf("  Request timeout: %ss\n", values["fetch.request_timeout_seconds"])
	if settings.Fetch.ChallengeTimeout > 0 {
		cmd.Printf("  Challenge timeout: %ss\n", values["fetch.challenge_timeout_seconds"])
	} else {
		cmd.Printf("  Challenge timeout: none\n")
	}
	cmd.Printf("  Validate PDF: %t\n", settings.Fetch.ValidatePDF)
	cmd.Println()

	cmd.Printf("Debug logging: %t\n", settings.Debug)
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	value, ok := settingValues(settings)[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s to %s\n", args[0], args[1])
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], ""); err != nil {
		return err
	}
	cmd.Printf("Restored default of %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}
