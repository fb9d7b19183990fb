package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/freefall/internal/dynamo"
)

// WriteCSV writes a series as time,velocity,position rows. Values are
// written in shortest round-trip form so reloading is lossless.
func WriteCSV(w io.Writer, series dynamo.TimeSeries) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"time", "velocity", "position"}); err != nil {
		return err
	}

	for i := 0; i < series.Len(); i++ {
		row := []string{
			strconv.FormatFloat(series.Time[i], 'f', -1, 64),
			strconv.FormatFloat(series.Velocity[i], 'f', -1, 64),
			strconv.FormatFloat(series.Position[i], 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type ExportData struct {
	Run    RunMetadata       `json:"run"`
	Drag   dynamo.TimeSeries `json:"drag"`
	Vacuum dynamo.TimeSeries `json:"vacuum"`
}

func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		Run:    meta,
		Drag:   result.Drag,
		Vacuum: result.Vacuum,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
