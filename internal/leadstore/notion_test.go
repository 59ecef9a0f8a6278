package leadstore

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func leadPage(id, name, phone, status string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Name":   &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: name}}},
			"Phone":  &notionapi.PhoneNumberProperty{PhoneNumber: phone},
			"Status": &notionapi.SelectProperty{Select: notionapi.Option{Name: status}},
		},
	}
}

func TestNotionTable_Rows(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return len(req.Sorts) == 1 && req.Sorts[0].Direction == notionapi.SortOrderASC
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			leadPage("p1", "Acme", "555-123-4567", "New"),
			leadPage("p2", "Beta", "555-000-1111", "Contacted"),
		},
	}, nil)

	tbl := NewNotionTable(mc, "db-1", fastRetry())
	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		model.Columns,
		{"Acme", "555-123-4567", "New", ""},
		{"Beta", "555-000-1111", "Contacted", ""},
	}, rows)

	col, err := tbl.Column(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone", "555-123-4567", "555-000-1111"}, col)

	_, err = tbl.Column(ctx, 5)
	assert.Error(t, err)
}

func TestNotionTable_AppendSkipsHeaderAndEmptyValues(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()

	var created []*notionapi.PageCreateRequest
	mc.On("CreatePage", ctx, mock.AnythingOfType("*notionapi.PageCreateRequest")).
		Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*notionapi.PageCreateRequest))
		}).
		Return(&notionapi.Page{ID: "new"}, nil)

	tbl := NewNotionTable(mc, "db-1", fastRetry())
	err := tbl.Append(ctx, [][]string{
		model.Columns,
		{"Acme", "555", "New", ""},
		{"Beta", "", "New", "note"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	first := created[0]
	assert.Equal(t, notionapi.DatabaseID("db-1"), first.Parent.DatabaseID)
	assert.Equal(t, notionapi.ParentTypeDatabaseID, first.Parent.Type)
	assert.Contains(t, first.Properties, "Phone")
	assert.NotContains(t, first.Properties, "Notes")
	assert.Equal(t, "New", first.Properties["Status"].(notionapi.SelectProperty).Select.Name)

	second := created[1]
	assert.NotContains(t, second.Properties, "Phone")
	assert.Equal(t, "note", second.Properties["Notes"].(notionapi.RichTextProperty).RichText[0].Text.Content)
}

func TestNotionTable_AppendStopsOnError(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()
	mc.On("CreatePage", ctx, mock.Anything).Return(nil, assert.AnError).Once()

	err := NewNotionTable(mc, "db-1", fastRetry()).Append(ctx, [][]string{{"A"}, {"B"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append row 1 of 2")
	mc.AssertNumberOfCalls(t, "CreatePage", 1)
}

func TestNotionTable_UpdateCell(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			leadPage("p1", "Acme", "555", "New"),
			leadPage("p2", "Beta", "777", "New"),
		},
	}, nil)
	mc.On("UpdatePage", ctx, "p2", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		sel, ok := req.Properties["Status"].(notionapi.SelectProperty)
		return ok && sel.Select.Name == "Replied"
	})).Return(&notionapi.Page{ID: "p2"}, nil).Once()

	a := NewAdapter(NewNotionTable(mc, "db-1", fastRetry()))
	require.NoError(t, a.UpdateStatusAt(ctx, 1, "Replied"))
	mc.AssertExpectations(t)
}

func TestNotionTable_UpdateCellOutOfRange(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()
	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil)

	tbl := NewNotionTable(mc, "db-1", fastRetry())
	assert.Error(t, tbl.UpdateCell(ctx, 2, 3, "x"))
	assert.Error(t, tbl.UpdateCell(ctx, 1, 3, "x"), "header row is not writable")
	assert.Error(t, tbl.UpdateCell(ctx, 2, 9, "x"))
}

func TestNotionTable_Header(t *testing.T) {
	h, err := NewNotionTable(new(mockNotion), "db-1", fastRetry()).Header(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Columns, h)
}
