package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// rawInput keeps every cell as text; USER_ENTERED would turn "007" into 7 and
// ISO dates into date serials.
const rawInput = "RAW"

// SheetClient is a Document backed by the Google Sheets v4 API.
type SheetClient struct {
	service       *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// NewSheetClient builds a client for one spreadsheet. limiter may be nil.
func NewSheetClient(ctx context.Context, spreadsheetID string, limiter *rate.Limiter, opts ...option.ClientOption) (*SheetClient, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return &SheetClient{
		service:       srv,
		spreadsheetID: spreadsheetID,
		limiter:       limiter,
	}, nil
}

func (s *SheetClient) ID() string {
	return s.spreadsheetID
}

func (s *SheetClient) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// call paces and logs a single API round trip. Failures are returned as is;
// there is no retry.
func (s *SheetClient) call(ctx context.Context, op string, fn func() error) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	err := fn()
	if err == nil {
		return nil
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == http.StatusTooManyRequests || gErr.Code == http.StatusForbidden) {
		log.WithFields(log.Fields{
			"spreadsheet": s.spreadsheetID,
			"op":          op,
			"code":        gErr.Code,
		}).Warn("Rejected by Google Sheets API")
	}
	return err
}

func (s *SheetClient) properties(ctx context.Context) ([]*sheets.SheetProperties, error) {
	var ss *sheets.Spreadsheet
	err := s.call(ctx, "get", func() (err error) {
		ss, err = s.service.Spreadsheets.Get(s.spreadsheetID).
			Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	props := make([]*sheets.SheetProperties, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			props = append(props, sh.Properties)
		}
	}
	return props, nil
}

func (s *SheetClient) TableNames(ctx context.Context) ([]string, error) {
	props, err := s.properties(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Title
	}
	return names, nil
}

func (s *SheetClient) sheetID(ctx context.Context, table string) (int64, error) {
	props, err := s.properties(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range props {
		if p.Title == table {
			return p.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", table, s.spreadsheetID)
}

func (s *SheetClient) AddTable(ctx context.Context, name string) error {
	addSheetReq := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: name,
			},
		},
	}
	return s.call(ctx, "addSheet", func() error {
		_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{addSheetReq},
		}).Context(ctx).Do()
		return err
	})
}

func (s *SheetClient) ReadRange(ctx context.Context, rng Range) ([][]string, error) {
	var resp *sheets.ValueRange
	err := s.call(ctx, "values.get", func() (err error) {
		resp, err = s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng.A1()).
			MajorDimension("ROWS").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		rows = append(rows, cells)
	}
	if rng.Cols == 0 && rng.Rows == 0 && rng.Row > 1 {
		if len(rows) < rng.Row {
			return nil, nil
		}
		rows = rows[rng.Row-1:]
	}
	return pad(rows, rng.Cols), nil
}

func (s *SheetClient) WriteRange(ctx context.Context, rng Range, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return s.call(ctx, "values.update", func() error {
		_, err := s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			rng.A1(),
			&sheets.ValueRange{Values: values},
		).ValueInputOption(rawInput).Context(ctx).Do()
		return err
	})
}

func (s *SheetClient) DeleteRow(ctx context.Context, table string, row int) error {
	id, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}
	req := &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    id,
				Dimension:  "ROWS",
				StartIndex: int64(row - 1),
				EndIndex:   int64(row),
				// The first sheet has id 0, which omitempty would drop.
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}
	return s.call(ctx, "deleteDimension", func() error {
		_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{req},
		}).Context(ctx).Do()
		return err
	})
}
