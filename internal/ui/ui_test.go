package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := Out, Err
	Out, Err = &out, &errOut
	t.Cleanup(func() { Out, Err = oldOut, oldErr })
	return &out, &errOut
}

func withColor(t *testing.T, on bool) {
	t.Helper()
	old := color.NoColor
	color.NoColor = !on
	t.Cleanup(func() { color.NoColor = old })
}

func TestHighlightSQL(t *testing.T) {
	const sql = "SELECT id FROM maison WHERE taille > $1 AND nom = ?"

	withColor(t, false)
	assert.Equal(t, sql, HighlightSQL(sql))

	withColor(t, true)
	got := HighlightSQL(sql)
	assert.NotEqual(t, sql, got)
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, got, "maison")
	assert.Contains(t, got, "taille")
}

func TestPrintSQL(t *testing.T) {
	withColor(t, false)
	out, _ := capture(t)

	PrintSQL("big", "SELECT id FROM maison WHERE taille > ?", []string{"int64(100)"})
	assert.Contains(t, out.String(), "-- big")
	assert.Contains(t, out.String(), "SELECT id FROM maison WHERE taille > ?\n")
	assert.Contains(t, out.String(), "int64(100)")
}

func TestStatusLines(t *testing.T) {
	out, errOut := capture(t)

	PrintSuccess("compiled %d", 3)
	PrintError("failed %s", "q1")
	assert.Contains(t, out.String(), "compiled 3")
	assert.NotContains(t, out.String(), "failed q1")
	assert.Contains(t, errOut.String(), "failed q1")
}

func TestPrintTable(t *testing.T) {
	out, _ := capture(t)

	require.NoError(t, PrintTable([]string{"Entity", "Table"}, [][]string{{"Maison", "maison"}, {"Piece", "pieces"}}))
	assert.Contains(t, out.String(), "Maison")
	assert.Contains(t, out.String(), "pieces")
}
