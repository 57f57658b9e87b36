package store

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/warroomhq/warroom/internal/domain"
)

// WriteRunCSV writes a run's outcome log as CSV, one row per recipient in
// dispatch order. The column set matches the downloadable results file the
// campaign UI offers.
func WriteRunCSV(w io.Writer, run *domain.DispatchRun) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"email", "name", "status", "error", "timestamp"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range run.Outcomes {
		row := []string{
			o.Recipient.Address,
			o.DisplayName,
			string(o.Status),
			o.ErrorDetail,
			o.Timestamp.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
