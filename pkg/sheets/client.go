// Package sheets wraps the Google Sheets and Drive APIs for reading and
// writing worksheet ranges.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// formattedValue reads cells as displayed, so numeric phones keep their digits.
const formattedValue = "FORMATTED_VALUE"

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Scopes are the OAuth scopes requested for service account credentials.
var Scopes = []string{gsheets.SpreadsheetsScope, drive.DriveReadonlyScope}

// Client defines the Sheets operations used by this application. Values are
// exchanged as strings; every cell is written RAW.
type Client interface {
	GetValues(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	GetColumn(ctx context.Context, spreadsheetID, rng string) ([]string, error)
	AppendValues(ctx context.Context, spreadsheetID, rng string, rows [][]string) error
	UpdateValues(ctx context.Context, spreadsheetID, rng string, rows [][]string) error
	Spreadsheet(ctx context.Context, spreadsheetID string) (*Spreadsheet, error)
	FindSpreadsheet(ctx context.Context, name string) (string, error)
}

// Spreadsheet is the subset of spreadsheet metadata the lead store needs.
type Spreadsheet struct {
	ID     string
	Title  string
	Sheets []string
}

// Option configures the Sheets client.
type Option func(*apiClient)

// WithRateLimit overrides the default rate limit (1 req/s). Zero or negative
// disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *apiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithClientOptions appends API client options, e.g. option.WithEndpoint in tests.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *apiClient) {
		c.apiOpts = append(c.apiOpts, opts...)
	}
}

type apiClient struct {
	sheets  *gsheets.Service
	drive   *drive.Service
	limiter *rate.Limiter
	apiOpts []option.ClientOption
}

// NewClient builds a client authenticated with service account JSON.
func NewClient(ctx context.Context, credentialsJSON []byte, opts ...Option) (Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, Scopes...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: parse credentials")
	}
	return newClient(ctx, append([]Option{WithClientOptions(option.WithCredentials(creds))}, opts...)...)
}

func newClient(ctx context.Context, opts ...Option) (Client, error) {
	c := &apiClient{
		limiter: rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(c)
	}

	svc, err := gsheets.NewService(ctx, c.apiOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create sheets service")
	}
	drv, err := drive.NewService(ctx, c.apiOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create drive service")
	}
	c.sheets = svc
	c.drive = drv
	return c, nil
}

// NewClientWithOptions builds a client from raw API options only. Used with
// option.WithEndpoint and option.WithoutAuthentication against a fake server.
func NewClientWithOptions(ctx context.Context, opts ...Option) (Client, error) {
	return newClient(ctx, opts...)
}

func (c *apiClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *apiClient) GetValues(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sheets: rate limit")
	}
	resp, err := c.sheets.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption(formattedValue).
		Context(ctx).
		Do()
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sheets: get values %s", rng))
	}
	return toStrings(resp.Values), nil
}

func (c *apiClient) GetColumn(ctx context.Context, spreadsheetID, rng string) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sheets: rate limit")
	}
	resp, err := c.sheets.Spreadsheets.Values.Get(spreadsheetID, rng).
		MajorDimension("COLUMNS").
		ValueRenderOption(formattedValue).
		Context(ctx).
		Do()
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sheets: get column %s", rng))
	}
	cols := toStrings(resp.Values)
	if len(cols) == 0 {
		return nil, nil
	}
	return cols[0], nil
}

func (c *apiClient) AppendValues(ctx context.Context, spreadsheetID, rng string, rows [][]string) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sheets: rate limit")
	}
	_, err := c.sheets.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheets.ValueRange{Values: fromStrings(rows)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("sheets: append %d rows to %s", len(rows), rng))
	}
	return nil
}

func (c *apiClient) UpdateValues(ctx context.Context, spreadsheetID, rng string, rows [][]string) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sheets: rate limit")
	}
	_, err := c.sheets.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: fromStrings(rows)}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("sheets: update %s", rng))
	}
	return nil
}

func (c *apiClient) Spreadsheet(ctx context.Context, spreadsheetID string) (*Spreadsheet, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sheets: rate limit")
	}
	resp, err := c.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("spreadsheetId", "properties.title", "sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sheets: get spreadsheet %s", spreadsheetID))
	}

	out := &Spreadsheet{ID: resp.SpreadsheetId}
	if resp.Properties != nil {
		out.Title = resp.Properties.Title
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			out.Sheets = append(out.Sheets, s.Properties.Title)
		}
	}
	return out, nil
}

// FindSpreadsheet returns the ID of the first non-trashed spreadsheet with the
// exact given name visible to the credentials.
func (c *apiClient) FindSpreadsheet(ctx context.Context, name string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", eris.Wrap(err, "sheets: rate limit")
	}
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(name), spreadsheetMimeType)
	resp, err := c.drive.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sheets: find spreadsheet %q", name))
	}
	if len(resp.Files) == 0 {
		return "", eris.Errorf("sheets: spreadsheet %q not found", name)
	}
	return resp.Files[0].Id, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			out[i][j] = cellString(v)
		}
	}
	return out
}

// cellString renders a decoded cell value. JSON numbers arrive as float64 and
// must not use exponent notation, or phone numbers lose their digits.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(v)
	}
}

func fromStrings(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
