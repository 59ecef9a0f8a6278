package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// CreationOrder sorts pages oldest first, which is the append order of the
// lead database.
var CreationOrder = []notionapi.SortObject{
	{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderASC},
}

// QueryAll fetches every page of a database matching query, following
// cursors until HasMore is false. query may be nil. Rate limiting is enforced
// by the Client.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all cancelled")
		}

		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if query != nil {
			req.Filter = query.Filter
			req.Sorts = query.Sorts
			req.PageSize = query.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryByStatus fetches pages whose select property equals status, oldest first.
func QueryByStatus(ctx context.Context, c Client, dbID, property, status string) ([]notionapi.Page, error) {
	query := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			Select: &notionapi.SelectFilterCondition{
				Equals: status,
			},
		},
		Sorts: CreationOrder,
	}
	pages, err := QueryAll(ctx, c, dbID, query)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query %s = %q", property, status)
	}
	return pages, nil
}
