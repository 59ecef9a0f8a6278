package leadstore

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
	"github.com/xRamax/scrapper-violet-wave/pkg/notion"
)

// NotionTable presents a Notion database as a Table with the fixed header
// Name, Phone, Status, Notes. Name is the title property, Phone a
// phone_number, Status a select and Notes rich text. Pages ordered by
// creation time are the data rows.
//
// Notion has no bulk insert: Append creates one page per row, so a failure
// part way leaves the earlier rows written.
type NotionTable struct {
	client notion.Client
	dbID   string
	retry  resilience.RetryConfig
}

// NewNotionTable returns a table over the lead database dbID.
func NewNotionTable(client notion.Client, dbID string, retry resilience.RetryConfig) *NotionTable {
	return &NotionTable{client: client, dbID: dbID, retry: retry}
}

func (t *NotionTable) Header(_ context.Context) ([]string, error) {
	return append([]string(nil), model.Columns...), nil
}

func (t *NotionTable) Rows(ctx context.Context) ([][]string, error) {
	pages, err := t.pages(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(pages)+1)
	rows = append(rows, append([]string(nil), model.Columns...))
	for _, p := range pages {
		row := make([]string, len(model.Columns))
		for j, col := range model.Columns {
			row[j] = notion.PlainText(p.Properties[col])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *NotionTable) Column(ctx context.Context, col int) ([]string, error) {
	if col < 1 || col > len(model.Columns) {
		return nil, eris.Errorf("notion: invalid column %d", col)
	}
	rows, err := t.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[col-1]
	}
	return out, nil
}

// Append creates one page per row. Rows equal to the header are skipped
// since the header is implicit in the database schema.
func (t *NotionTable) Append(ctx context.Context, rows [][]string) error {
	for i, r := range rows {
		if isHeaderRow(r) {
			continue
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(t.dbID),
			},
			Properties: leadProperties(r),
		}
		// Creates are not idempotent; only an outright 429 is retried.
		cfg := t.retry
		cfg.ShouldRetry = isRateLimited
		cfg.OnRetry = resilience.RetryLogger("notion", "create_page")
		if err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
			_, err := t.client.CreatePage(ctx, req)
			return err
		}); err != nil {
			return eris.Wrapf(err, "notion: append row %d of %d", i+1, len(rows))
		}
	}
	return nil
}

func (t *NotionTable) UpdateCell(ctx context.Context, row, col int, value string) error {
	if col < 1 || col > len(model.Columns) {
		return eris.Errorf("notion: invalid column %d", col)
	}
	if row < 2 {
		return eris.Errorf("notion: row %d is not a data row", row)
	}

	pages, err := t.pages(ctx)
	if err != nil {
		return err
	}
	if row-2 >= len(pages) {
		return eris.Errorf("notion: row %d out of range (%d data rows)", row, len(pages))
	}

	name := model.Columns[col-1]
	req := &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{name: propertyFor(name, value)},
	}
	pageID := string(pages[row-2].ID)
	return resilience.Do(ctx, t.retryConfig("update_page"), func(ctx context.Context) error {
		_, err := t.client.UpdatePage(ctx, pageID, req)
		return err
	})
}

func (t *NotionTable) pages(ctx context.Context) ([]notionapi.Page, error) {
	return resilience.DoVal(ctx, t.retryConfig("query_database"), func(ctx context.Context) ([]notionapi.Page, error) {
		return notion.QueryAll(ctx, t.client, t.dbID, &notionapi.DatabaseQueryRequest{Sorts: notion.CreationOrder})
	})
}

func (t *NotionTable) retryConfig(op string) resilience.RetryConfig {
	cfg := t.retry
	cfg.ShouldRetry = isRetryable
	cfg.OnRetry = resilience.RetryLogger("notion", op)
	return cfg
}

func leadProperties(values []string) notionapi.Properties {
	props := make(notionapi.Properties, len(model.Columns))
	for j, col := range model.Columns {
		v := ""
		if j < len(values) {
			v = values[j]
		}
		if v == "" && col != model.ColumnName {
			continue
		}
		props[col] = propertyFor(col, v)
	}
	return props
}

func propertyFor(col, value string) notionapi.Property {
	switch col {
	case model.ColumnName:
		return notion.Title(value)
	case model.ColumnPhone:
		return notion.Phone(value)
	case model.ColumnStatus:
		return notion.Select(value)
	default:
		return notion.Text(value)
	}
}

func isHeaderRow(r []string) bool {
	if len(r) != len(model.Columns) {
		return false
	}
	for i, v := range r {
		if v != model.Columns[i] {
			return false
		}
	}
	return true
}
