package storage

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"gmb-scraper/utils"
)

// SheetsSource reads keywords from column A of a worksheet, skipping the header row.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	log           *utils.Logger
}

// NewSheetsSource connects to the Sheets API with a service-account key file.
// Extra client options (e.g. a custom HTTP client) are applied after the credentials.
func NewSheetsSource(ctx context.Context, credentialsPath, spreadsheetID, worksheet string, log *utils.Logger, opts ...option.ClientOption) (*SheetsSource, error) {
	log.Info("Connecting to Google Sheets API...")

	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if credentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	log.Success("Connected to Google Sheets API")
	return &SheetsSource{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

func (s *SheetsSource) Keywords(ctx context.Context) ([]string, error) {
	s.log.Info("Fetching keywords from worksheet: '%s'", s.worksheet)

	readRange := fmt.Sprintf("'%s'!A:A", strings.ReplaceAll(s.worksheet, "'", "''"))
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", s.worksheet, err)
	}

	var keywords []string
	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		kw := strings.TrimSpace(fmt.Sprint(row[0]))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	s.log.Success("Fetched %d keywords", len(keywords))
	return keywords, nil
}
