package leadstore

import (
	"context"
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
	"github.com/xRamax/scrapper-violet-wave/pkg/notion"
	"github.com/xRamax/scrapper-violet-wave/pkg/sheets"
)

// Open builds an Adapter for the configured driver. id selects a specific
// store and overrides the configured default: a spreadsheet ID for sheets, a
// workbook path for xlsx, a database ID for notion.
func Open(ctx context.Context, cfg *config.Config, id string) (*Adapter, error) {
	retry := resilience.FromConfig(cfg.Retry)

	switch cfg.LeadStore.Driver {
	case "", "sheets":
		creds, err := ResolveCredentials(cfg.LeadStore)
		if err != nil {
			return nil, err
		}
		client, err := sheets.NewClient(ctx, creds, sheets.WithRateLimit(cfg.LeadStore.RateLimit))
		if err != nil {
			return nil, eris.Wrapf(ErrAuthentication, "%v", err)
		}
		return OpenSheets(ctx, client, cfg.LeadStore, id, retry)

	case "xlsx":
		path := cfg.LeadStore.XLSXPath
		if id != "" {
			path = id
		}
		t := NewXLSXTable(path, cfg.LeadStore.Worksheet)
		if err := t.checkWritable(); err != nil {
			return nil, eris.Wrapf(ErrStoreOpen, "%v", err)
		}
		zap.L().Debug("leadstore: opened workbook", zap.String("path", path))
		return NewAdapter(t), nil

	case "notion":
		dbID := cfg.Notion.LeadDB
		if id != "" {
			dbID = id
		}
		if cfg.Notion.Token == "" {
			return nil, eris.Wrap(ErrAuthentication, "notion.token is empty")
		}
		if dbID == "" {
			return nil, eris.Wrap(ErrStoreOpen, "no notion database id")
		}
		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		return NewAdapter(NewNotionTable(client, dbID, retry)), nil

	default:
		return nil, eris.Errorf("leadstore: unknown driver %q", cfg.LeadStore.Driver)
	}
}

// ResolveCredentials returns service account JSON from the inline setting or,
// failing that, from the credentials file. Content that is not valid JSON is
// not usable. Neither source usable yields ErrAuthentication.
func ResolveCredentials(cfg config.LeadStoreConfig) ([]byte, error) {
	if inline := strings.TrimSpace(cfg.CredentialsJSON); inline != "" {
		if json.Valid([]byte(inline)) {
			return []byte(inline), nil
		}
		zap.L().Warn("leadstore: inline credentials are not valid JSON, trying credentials file")
	}

	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err == nil && json.Valid(data) {
			return data, nil
		}
		if err != nil {
			zap.L().Debug("leadstore: credentials file unreadable",
				zap.String("path", cfg.CredentialsFile), zap.Error(err))
		}
	}

	return nil, ErrAuthentication
}

// OpenSheets opens spreadsheetID, or the spreadsheet named cfg.SheetName when
// the ID is empty, and selects cfg.Worksheet or the first worksheet.
func OpenSheets(ctx context.Context, client sheets.Client, cfg config.LeadStoreConfig, spreadsheetID string, retry resilience.RetryConfig) (*Adapter, error) {
	id := spreadsheetID
	if id == "" {
		if cfg.SheetName == "" {
			return nil, eris.Wrap(ErrStoreOpen, "no spreadsheet id and leadstore.sheet_name is empty")
		}
		found, err := client.FindSpreadsheet(ctx, cfg.SheetName)
		if err != nil {
			return nil, eris.Wrapf(ErrStoreOpen, "spreadsheet %q: %v", cfg.SheetName, err)
		}
		id = found
	}

	ss, err := client.Spreadsheet(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(ErrStoreOpen, "spreadsheet %s: %v", id, err)
	}

	worksheet := cfg.Worksheet
	switch {
	case worksheet == "" && len(ss.Sheets) == 0:
		return nil, eris.Wrapf(ErrStoreOpen, "spreadsheet %s has no worksheets", id)
	case worksheet == "":
		worksheet = ss.Sheets[0]
	case !slices.Contains(ss.Sheets, worksheet):
		return nil, eris.Wrapf(ErrStoreOpen, "worksheet %q not in spreadsheet %s", worksheet, id)
	}

	zap.L().Debug("leadstore: opened spreadsheet",
		zap.String("spreadsheet_id", id),
		zap.String("title", ss.Title),
		zap.String("worksheet", worksheet),
	)
	return NewAdapter(NewSheetTable(client, id, worksheet, retry)), nil
}
