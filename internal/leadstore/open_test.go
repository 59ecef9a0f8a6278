package leadstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
	"github.com/xRamax/scrapper-violet-wave/pkg/sheets"
	"github.com/xRamax/scrapper-violet-wave/pkg/sheets/mocks"
)

const serviceAccount = `{"type":"service_account","client_email":"bot@example.iam.gserviceaccount.com"}`

func TestResolveCredentials_InlineFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o600))

	creds, err := ResolveCredentials(config.LeadStoreConfig{CredentialsJSON: serviceAccount, CredentialsFile: path})
	require.NoError(t, err)
	assert.JSONEq(t, serviceAccount, string(creds))
}

func TestResolveCredentials_FallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(serviceAccount), 0o600))

	creds, err := ResolveCredentials(config.LeadStoreConfig{CredentialsJSON: "{not json", CredentialsFile: path})
	require.NoError(t, err)
	assert.JSONEq(t, serviceAccount, string(creds))
}

func TestResolveCredentials_NoneUsable(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))

	cases := []config.LeadStoreConfig{
		{},
		{CredentialsFile: filepath.Join(dir, "missing.json")},
		{CredentialsFile: bad},
		{CredentialsJSON: "   "},
	}
	for _, c := range cases {
		_, err := ResolveCredentials(c)
		assert.ErrorIs(t, err, ErrAuthentication)
	}
}

func TestOpenSheets_ByID(t *testing.T) {
	mc := mocks.NewMockClient(t)
	ctx := context.Background()
	mc.On("Spreadsheet", ctx, "ss-1").Return(&sheets.Spreadsheet{ID: "ss-1", Sheets: []string{"Sheet1", "Other"}}, nil).Once()

	a, err := OpenSheets(ctx, mc, config.LeadStoreConfig{SheetName: "ignored"}, "ss-1", fastRetry())
	require.NoError(t, err)
	tbl := a.Table().(*SheetTable)
	assert.Equal(t, "ss-1", tbl.SpreadsheetID())
	assert.Equal(t, "Sheet1", tbl.worksheet)
}

func TestOpenSheets_ByName(t *testing.T) {
	mc := mocks.NewMockClient(t)
	ctx := context.Background()
	mc.On("FindSpreadsheet", ctx, "Leads Dentistas").Return("found", nil).Once()
	mc.On("Spreadsheet", ctx, "found").Return(&sheets.Spreadsheet{ID: "found", Sheets: []string{"Sheet1", "Leads"}}, nil).Once()

	a, err := OpenSheets(ctx, mc, config.LeadStoreConfig{SheetName: "Leads Dentistas", Worksheet: "Leads"}, "", fastRetry())
	require.NoError(t, err)
	assert.Equal(t, "Leads", a.Table().(*SheetTable).worksheet)
}

func TestOpenSheets_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no id and no name", func(t *testing.T) {
		_, err := OpenSheets(ctx, mocks.NewMockClient(t), config.LeadStoreConfig{}, "", fastRetry())
		assert.ErrorIs(t, err, ErrStoreOpen)
	})

	t.Run("name not found", func(t *testing.T) {
		mc := mocks.NewMockClient(t)
		mc.On("FindSpreadsheet", ctx, "Missing").Return("", assert.AnError).Once()
		_, err := OpenSheets(ctx, mc, config.LeadStoreConfig{SheetName: "Missing"}, "", fastRetry())
		assert.ErrorIs(t, err, ErrStoreOpen)
	})

	t.Run("spreadsheet unreadable", func(t *testing.T) {
		mc := mocks.NewMockClient(t)
		mc.On("Spreadsheet", ctx, "ss-1").Return(nil, assert.AnError).Once()
		_, err := OpenSheets(ctx, mc, config.LeadStoreConfig{}, "ss-1", fastRetry())
		assert.ErrorIs(t, err, ErrStoreOpen)
	})

	t.Run("worksheet missing", func(t *testing.T) {
		mc := mocks.NewMockClient(t)
		mc.On("Spreadsheet", ctx, "ss-1").Return(&sheets.Spreadsheet{ID: "ss-1", Sheets: []string{"Sheet1"}}, nil).Once()
		_, err := OpenSheets(ctx, mc, config.LeadStoreConfig{Worksheet: "Leads"}, "ss-1", fastRetry())
		assert.ErrorIs(t, err, ErrStoreOpen)
	})

	t.Run("no worksheets", func(t *testing.T) {
		mc := mocks.NewMockClient(t)
		mc.On("Spreadsheet", ctx, "ss-1").Return(&sheets.Spreadsheet{ID: "ss-1"}, nil).Once()
		_, err := OpenSheets(ctx, mc, config.LeadStoreConfig{}, "ss-1", fastRetry())
		assert.ErrorIs(t, err, ErrStoreOpen)
	})
}

func TestOpen_SheetsWithoutCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.LeadStore.Driver = "sheets"
	cfg.LeadStore.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := Open(context.Background(), cfg, "")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestOpen_XLSX(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LeadStore.Driver = "xlsx"
	cfg.LeadStore.XLSXPath = filepath.Join(dir, "default.xlsx")

	a, err := Open(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, cfg.LeadStore.XLSXPath, a.Table().(*XLSXTable).Path())

	override := filepath.Join(dir, "override.xlsx")
	a, err = Open(context.Background(), cfg, override)
	require.NoError(t, err)
	assert.Equal(t, override, a.Table().(*XLSXTable).Path())

	_, err = Open(context.Background(), cfg, filepath.Join(dir, "no", "such", "dir.xlsx"))
	assert.ErrorIs(t, err, ErrStoreOpen)
}

func TestOpen_Notion(t *testing.T) {
	cfg := &config.Config{}
	cfg.LeadStore.Driver = "notion"

	_, err := Open(context.Background(), cfg, "")
	assert.ErrorIs(t, err, ErrAuthentication)

	cfg.Notion.Token = "ntn_test"
	_, err = Open(context.Background(), cfg, "")
	assert.ErrorIs(t, err, ErrStoreOpen)

	a, err := Open(context.Background(), cfg, "db-override")
	require.NoError(t, err)
	assert.Equal(t, "db-override", a.Table().(*NotionTable).dbID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.LeadStore.Driver = "csv"
	_, err := Open(context.Background(), cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
