// Package sheets backs tabular sources with Google Sheets ranges through the
// official Sheets API, the production storage for the two workbooks.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// NewService builds the shared Sheets API client from a service-account
// credentials file.
func NewService(ctx context.Context, credentialsPath string) (*sheetsapi.Service, error) {
	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	return service, nil
}

// Source exposes one sheet range as a tabular source.
type Source struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewSource builds a source over a single range, e.g. "SalesData!A:H".
func NewSource(service *sheetsapi.Service, spreadsheetID, sheetRange string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		logger:        logger,
	}
}

// Load fetches the range and flattens every cell to its string form. Rows
// may be ragged; the store codec tolerates short rows.
func (s *Source) Load(ctx context.Context) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", s.sheetRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Store clears the range and writes the given rows in its place. The clear
// removes stale trailing rows left over when the collection shrinks between
// rewrites.
func (s *Source) Store(ctx context.Context, rows [][]string) error {
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", s.sheetRange, err)
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	call := s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("write range %s: %w", s.sheetRange, err)
	}

	s.logger.Debug("range rewritten", zap.String("range", s.sheetRange), zap.Int("rows", len(rows)))
	return nil
}
