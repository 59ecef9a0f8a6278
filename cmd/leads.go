package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/fetcher"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// leadStoreID is the --sheet flag shared by the lead commands: a spreadsheet
// ID, workbook path or Notion database ID depending on leadstore.driver.
var leadStoreID string

// -- scrape --

var scrapeReq model.ScrapeRequest

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Search business listings and add the new phone numbers to the lead store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		scrapeReq.SpreadsheetID = leadStoreID
		report, err := env.scrapeAndSave(ctx, scrapeReq)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}
		return printJSON(os.Stdout, report)
	},
}

// -- import --

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a CSV or XLSX file into the lead store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leadstore"); err != nil {
			return err
		}

		candidates, err := fetcher.ReadFile(ctx, importFile)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		zap.L().Info("import: read lead file",
			zap.String("file", importFile),
			zap.Int("candidates", len(candidates)),
		)

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.ingestCandidates(ctx, leadStoreID, candidates)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		if res.Degraded() {
			zap.L().Warn("import: lead store failure, nothing written", zap.Error(res.Failure))
		}
		return printJSON(os.Stdout, res)
	},
}

// -- reconcile --

var (
	reconcilePhoneNumber string
	reconcileStatus      string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Set the status of the lead matching a phone number",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leadstore"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		status := reconcileStatus
		if status == "" {
			status = cfg.Outreach.ReplyStatus
		}
		res, err := env.reconcilePhone(ctx, leadStoreID, reconcilePhoneNumber, status)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}
		if res.Degraded() {
			zap.L().Warn("reconcile: lead store failure, nothing written", zap.Error(res.Failure))
		}
		return printJSON(os.Stdout, res)
	},
}

// -- leads --

var leadsJSON bool

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List the leads still in the New status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leadstore"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.newLeads(ctx, leadStoreID)
		if err != nil {
			return eris.Wrap(err, "leads")
		}
		if leadsJSON {
			return printJSON(os.Stdout, leads)
		}
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No new leads.")
			return nil
		}
		formatLeads(os.Stdout, leads)
		return nil
	},
}

// formatLeads writes a tabular list of leads to w. ROW is the sheet row.
func formatLeads(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROW\tNAME\tPHONE\tSTATUS\tNOTES")
	_, _ = fmt.Fprintln(w, "---\t----\t-----\t------\t-----")
	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			l.Row+2,
			truncate(l.Name, 30),
			l.Phone,
			l.Status,
			truncate(l.Notes, 40),
		)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{scrapeCmd, importCmd, reconcileCmd, leadsCmd} {
		c.Flags().StringVar(&leadStoreID, "sheet", "", "spreadsheet ID, workbook path or Notion database ID (default from config)")
	}

	scrapeCmd.Flags().StringVar(&scrapeReq.City, "city", "", "city to search (required)")
	scrapeCmd.Flags().StringVar(&scrapeReq.Country, "country", "", "country to narrow the search")
	scrapeCmd.Flags().StringVar(&scrapeReq.Niche, "niche", "", "business niche (default outreach.niche)")
	scrapeCmd.Flags().IntVar(&scrapeReq.Limit, "limit", 0, "max listings to fetch (default 20)")
	_ = scrapeCmd.MarkFlagRequired("city")

	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv or .xlsx lead file (required)")
	_ = importCmd.MarkFlagRequired("file")

	reconcileCmd.Flags().StringVar(&reconcilePhoneNumber, "phone", "", "phone number to match (required)")
	reconcileCmd.Flags().StringVar(&reconcileStatus, "status", "", "status to set (default outreach.reply_status)")
	_ = reconcileCmd.MarkFlagRequired("phone")

	leadsCmd.Flags().BoolVar(&leadsJSON, "json", false, "print leads as JSON")

	rootCmd.AddCommand(scrapeCmd, importCmd, reconcileCmd, leadsCmd)
}
