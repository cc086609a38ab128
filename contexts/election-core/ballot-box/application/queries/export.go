package queries

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"safeballot/contexts/election-core/ballot-box/domain/entities"
)

// ExportUseCase renders a concluded election's tally as CSV for the
// web layer to serve as a download.
type ExportUseCase struct {
	Tally TallyUseCase
}

type CSVExport struct {
	Filename string
	Body     []byte
}

// ExportCSV writes header `choice,count` and one row per distinct
// decrypted choice, sorted by descending count then choice so repeated
// exports of the same ballot set are byte-identical.
func (uc ExportUseCase) ExportCSV(ctx context.Context, electionID string, actor entities.Actor) (CSVExport, error) {
	tally, err := uc.Tally.Tally(ctx, electionID, actor)
	if err != nil {
		return CSVExport{}, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"choice", "count"}); err != nil {
		return CSVExport{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range tally.Results {
		if err := writer.Write([]string{row.RawChoice, strconv.Itoa(row.Count)}); err != nil {
			return CSVExport{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return CSVExport{}, fmt.Errorf("flush csv: %w", err)
	}

	return CSVExport{
		Filename: fmt.Sprintf("results_%s.csv", tally.ElectionID),
		Body:     buf.Bytes(),
	}, nil
}
