package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const unnamedLabel = "<unnamed>"

// isTerminal reports whether w is a file attached to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// cell is one table value, painted when the table is written to a terminal
type cell struct {
	text  string
	paint *color.Color
}

func plain(text string) cell {
	return cell{text: text}
}

// writeTable lays the rows out with text/tabwriter on the plain text and
// paints cells afterwards, so escape codes never count toward column widths.
func writeTable(out io.Writer, colored bool, headers []string, rows [][]cell) error {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		texts := make([]string, len(row))
		for i, c := range row {
			texts[i] = c.text
		}
		fmt.Fprintln(w, strings.Join(texts, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if colored {
		starts := columnStarts(lines[0], headers)
		for i, row := range rows {
			lines[i+1] = paintCells(lines[i+1], starts, row)
		}
	}
	_, err := io.WriteString(out, strings.Join(lines, "\n")+"\n")
	return err
}

// columnStarts returns the rune offset of every column in the padded header line
func columnStarts(header string, headers []string) []int {
	starts := make([]int, len(headers))
	pos := 0
	for i, h := range headers {
		idx := pos + strings.Index(header[pos:], h)
		starts[i] = utf8.RuneCountInString(header[:idx])
		pos = idx + len(h)
	}
	return starts
}

// paintCells wraps the painted cells of a padded line; padding stays uncolored
func paintCells(line string, starts []int, row []cell) string {
	runes := []rune(line)
	for i := len(row) - 1; i >= 0; i-- {
		c := row[i]
		if c.paint == nil || i >= len(starts) {
			continue
		}
		from := starts[i]
		to := from + utf8.RuneCountInString(c.text)
		if to > len(runes) {
			continue
		}
		runes = []rune(string(runes[:from]) + c.paint.Sprint(c.text) + string(runes[to:]))
	}
	return string(runes)
}

// writeJSON prints v indented, followed by a newline
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeCompactJSON prints v on a single line, as one record of a stream
func writeCompactJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// painter returns a color that is forced on or off, independent of the
// process-wide detection fatih/color does on os.Stdout.
func painter(colored bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
