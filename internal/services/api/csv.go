package api

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/greenvalve/greenvalve/internal/model"
)

// exportHeader is the fixed column order of the CSV export.
var exportHeader = []string{"ph", "soil", "temperature", "humidity", "servo_position", "topic", "receivedAt"}

// writeCSV renders readings in the fixed column order. encoding/csv
// handles the quote-wrapping of fields containing comma, quote or
// newline; absent fields render as empty cells.
func writeCSV(w io.Writer, readings []model.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range readings {
		row := []string{
			formatFloat(r.PH),
			formatFloat(r.SoilMoisture),
			formatFloat(r.Temperature),
			formatFloat(r.Humidity),
			formatInt(r.ServoPosition),
			r.Topic,
			formatTime(r.ReceivedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
