package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liqcal/calibration-core/pkg/liquids"
)

const exchangeHeader = "Pipette,Liquid,Aspiration Rate (µL/s),Aspiration Delay (s)," +
	"Aspiration Withdrawal Rate (mm/s),Dispense Rate (µL/s),Dispense Delay (s)," +
	"Blowout Rate (µL/s),Touch tip"

func TestExportCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().ExportCSV(&buf))
	assert.Equal(t, exchangeHeader, strings.TrimSpace(buf.String()))
}

func TestRoundTrip(t *testing.T) {
	src := NewWithDefaults()

	var buf bytes.Buffer
	require.NoError(t, src.ExportCSV(&buf))

	dst := New()
	failures, err := dst.ImportCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, failures)

	// Same keys, numerically equal values, same touch_tip flags.
	assert.Equal(t, src.List(), dst.List())
}

func TestRoundTripThroughFile(t *testing.T) {
	src := New()
	src.Add(Entry{Pipette: liquids.P1000, Liquid: liquids.Glycerol99,
		Params: DefaultEntries()[17].Params})

	path := filepath.Join(t.TempDir(), "liquid_classes.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, src.ExportCSV(f))
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dst := New()
	failures, err := dst.ImportCSV(f)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, src.List(), dst.List())
}

func TestImportOverwritesExistingKey(t *testing.T) {
	r := NewWithDefaults()
	before, ok := r.Get(liquids.P1000, liquids.Glycerol99)
	require.True(t, ok)
	require.NotEqual(t, 99.0, before.AspirationRate)

	data := exchangeHeader + "\n" +
		"P1000,Glycerol 99%,99,1,2,99,1,5,Yes\n"
	failures, err := r.ImportCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, failures)

	after, ok := r.Get(liquids.P1000, liquids.Glycerol99)
	require.True(t, ok)
	assert.Equal(t, 99.0, after.AspirationRate)
	assert.True(t, after.TouchTip)
	assert.Equal(t, 18, r.Len(), "overwrite must not add a new entry")
}

func TestImportSkipsMalformedRows(t *testing.T) {
	data := exchangeHeader + "\n" +
		"P1000,Water,150,1,5,150,1,100,No\n" + // ok
		"P1000,Water,150,1,5\n" + // wrong column count
		"P9999,Water,150,1,5,150,1,100,No\n" + // unknown pipette
		"P1000,Quicksilver,150,1,5,150,1,100,No\n" + // unknown liquid
		"P1000,DMSO,abc,1,5,150,1,100,No\n" + // non-numeric rate
		"P300,Water,80,1,5,80,1,10,yes\n" // ok, lowercase yes

	r := New()
	failures, err := r.ImportCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len(), "well-formed rows import despite failures")
	require.Len(t, failures, 4)
	rows := make([]int, len(failures))
	for i, f := range failures {
		rows[i] = f.Row
		assert.NotEmpty(t, f.Error())
	}
	assert.Equal(t, []int{3, 4, 5, 6}, rows)

	v, ok := r.Get(liquids.P300, liquids.Water)
	require.True(t, ok)
	assert.True(t, v.TouchTip, "touch tip parsing is case-insensitive")
}

func TestImportRejectsBadHeader(t *testing.T) {
	data := "Pipette,Liquid,Wrong Column\nP1000,Water,1\n"
	_, err := New().ImportCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestImportEmptyInput(t *testing.T) {
	_, err := New().ImportCSV(strings.NewReader(""))
	require.Error(t, err)
}
