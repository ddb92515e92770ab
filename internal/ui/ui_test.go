package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tbl := NewTable("ID", "Name")
	tbl.AddRow("1", "John Doe")
	tbl.AddRow("22")

	var buf bytes.Buffer
	tbl.Render(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	assert.Equal(t, "┌────┬──────────┐", lines[0])
	assert.Equal(t, "│ ID │ Name     │", lines[1])
	assert.Equal(t, "│ 1  │ John Doe │", lines[3])
	assert.Equal(t, "│ 22 │          │", lines[4])
	assert.Equal(t, 2, tbl.Len())
}

func TestTableMaxWidth(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tbl := NewTable("Path")
	tbl.SetMaxWidth(20)
	tbl.AddRow(strings.Repeat("x", 40))

	var buf bytes.Buffer
	tbl.Render(&buf)
	assert.Contains(t, buf.String(), "...")
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 21)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "Ána...", truncate("Ána Bé Long", 6))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "-", FormatAge(time.Time{}))
	assert.Contains(t, FormatAge(time.Now().Add(-3*time.Hour)), "hours ago")
}

func TestMessagesPlain(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	SuccessMsg(&buf, "stored %d", 3)
	ErrorMsg(&buf, "failed")
	assert.Equal(t, "✓ stored 3\n✗ failed\n", buf.String())
}
