package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
)

// ReportFilename returns the attachment name for a CSV download, for
// example "swaps_user_12_report.csv".
func ReportFilename(t model.ReportType, userID *int64) string {
	if userID != nil {
		return fmt.Sprintf("%s_user_%d_report.csv", t, *userID)
	}
	return fmt.Sprintf("%s_report.csv", t)
}

// WriteCSV writes the header row and one record per report row. An empty
// report produces no output.
func WriteCSV(w io.Writer, rep *model.Report) error {
	if len(rep.Rows) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rep.Columns); err != nil {
		return err
	}
	rec := make([]string, len(rep.Columns))
	for _, row := range rep.Rows {
		for i, v := range row {
			rec[i] = csvField(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvField(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
