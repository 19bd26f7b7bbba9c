package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/liqcal/calibration-core/pkg/liquids"
	"github.com/liqcal/calibration-core/pkg/params"
)

// csvHeader is the fixed nine-column exchange header. Import requires it
// verbatim (modulo surrounding whitespace per field).
var csvHeader = []string{
	"Pipette",
	"Liquid",
	"Aspiration Rate (µL/s)",
	"Aspiration Delay (s)",
	"Aspiration Withdrawal Rate (mm/s)",
	"Dispense Rate (µL/s)",
	"Dispense Delay (s)",
	"Blowout Rate (µL/s)",
	"Touch tip",
}

// RowError reports one data row that failed to import. Row numbers are
// 1-based and count the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ExportCSV writes every entry in List order to the exchange format.
func (r *Registry) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range r.List() {
		touchTip := "No"
		if e.Params.TouchTip {
			touchTip = "Yes"
		}
		row := []string{
			string(e.Pipette),
			string(e.Liquid),
			formatFloat(e.Params.AspirationRate),
			formatFloat(e.Params.AspirationDelay),
			formatFloat(e.Params.AspirationWithdrawalRate),
			formatFloat(e.Params.DispenseRate),
			formatFloat(e.Params.DispenseDelay),
			formatFloat(e.Params.BlowoutRate),
			touchTip,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s/%s: %w", e.Pipette, e.Liquid, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportCSV reads the exchange format, adding every well-formed row with
// overwrite semantics. Malformed rows are skipped and reported; only a
// missing or mismatched header aborts the whole import.
func (r *Registry) ImportCSV(reader io.Reader) ([]RowError, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1 // row length is validated per row

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var failures []RowError
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, RowError{Row: row, Err: err})
			continue
		}
		entry, err := parseRow(record)
		if err != nil {
			failures = append(failures, RowError{Row: row, Err: err})
			continue
		}
		r.Add(entry)
	}
	return failures, nil
}

func checkHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("csv header has %d columns, want %d", len(header), len(csvHeader))
	}
	for i, col := range header {
		if strings.TrimSpace(col) != csvHeader[i] {
			return fmt.Errorf("csv header column %d is %q, want %q", i+1, strings.TrimSpace(col), csvHeader[i])
		}
	}
	return nil
}

func parseRow(record []string) (Entry, error) {
	if len(record) != len(csvHeader) {
		return Entry{}, fmt.Errorf("row has %d columns, want %d", len(record), len(csvHeader))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	pipette, err := liquids.ParsePipette(record[0])
	if err != nil {
		return Entry{}, err
	}
	liquid, err := liquids.ParseLiquid(record[1])
	if err != nil {
		return Entry{}, err
	}

	var p params.Vector
	numeric := []struct {
		name  params.Name
		field string
	}{
		{params.AspirationRate, record[2]},
		{params.AspirationDelay, record[3]},
		{params.AspirationWithdrawalRate, record[4]},
		{params.DispenseRate, record[5]},
		{params.DispenseDelay, record[6]},
		{params.BlowoutRate, record[7]},
	}
	for _, n := range numeric {
		v, err := strconv.ParseFloat(n.field, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("invalid %s value %q", n.name, n.field)
		}
		p.SetValue(n.name, v)
	}
	p.TouchTip = strings.EqualFold(record[8], "yes")

	return Entry{Pipette: pipette, Liquid: liquid, Params: p}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
