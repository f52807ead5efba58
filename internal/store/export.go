package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/parex-ode/parex/internal/ode"
)

// ExportData is the JSON export shape for one run.
type ExportData struct {
	Problem string      `json:"problem"`
	Method  string      `json:"method"`
	Steps   int         `json:"steps"`
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
	Stats   ode.Stats   `json:"stats"`
}

func WriteJSON(w io.Writer, problem, method string, sol *ode.Solution) error {
	data := ExportData{
		Problem: problem,
		Method:  method,
		Steps:   sol.Stats.AcceptedSteps,
		Times:   sol.Times,
		States:  make([][]float64, len(sol.States)),
		Stats:   sol.Stats,
	}
	for i, s := range sol.States {
		data.States[i] = s
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV writes the solution grid with a time column and one y column
// per state component.
func WriteCSV(w io.Writer, sol *ode.Solution) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(sol.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range sol.States[0] {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range sol.States {
		row := make([]string, 0, len(sol.States[i])+1)
		row = append(row, strconv.FormatFloat(sol.Times[i], 'g', 17, 64))
		for _, val := range sol.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 17, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
