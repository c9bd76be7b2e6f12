// Package output renders command results as colored text tables, JSON,
// Markdown, YAML or TOON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatTOON     Format = "toon"
)

// Formats lists every accepted format name.
var Formats = []string{"text", "json", "markdown", "yaml", "toon"}

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "yaml", "yml":
		return FormatYAML
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Renderable is data that can render itself as text and Markdown. The
// structured formats serialize RenderData.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	RenderData() any
}

// Formatter writes results in one format.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter writing to stdout, or to output when it
// is set. File output is never colored.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		writer = f
		file = f
		colored = false
	}

	return &Formatter{
		format:  format,
		writer:  writer,
		file:    file,
		colored: colored,
	}, nil
}

// NewWriterFormatter creates a formatter on an arbitrary writer.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the formatter's writer if it's a file.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

func (f *Formatter) Writer() io.Writer { return f.writer }

func (f *Formatter) Format() Format { return f.format }

func (f *Formatter) Colored() bool { return f.colored }

// Structured reports whether the format is meant for machines. Progress
// bars and chatter are suppressed for structured formats.
func (f *Formatter) Structured() bool {
	switch f.format {
	case FormatJSON, FormatYAML, FormatTOON:
		return true
	}
	return false
}

// Output writes data in the configured format.
func (f *Formatter) Output(data any) error {
	if r, ok := data.(Renderable); ok {
		return f.render(r)
	}
	return f.outputRaw(data)
}

func (f *Formatter) render(r Renderable) error {
	switch f.format {
	case FormatText:
		return r.RenderText(f.writer, f.colored)
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return f.outputRaw(r.RenderData())
	}
}

func (f *Formatter) outputRaw(data any) error {
	switch f.format {
	case FormatYAML:
		return writeYAML(f.writer, data)
	case FormatTOON:
		return writeTOON(f.writer, data)
	case FormatMarkdown:
		fmt.Fprintln(f.writer, "```json")
		if err := writeJSON(f.writer, data); err != nil {
			return err
		}
		fmt.Fprintln(f.writer, "```")
		return nil
	default:
		return writeJSON(f.writer, data)
	}
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// plain converts data to maps, slices and scalars through its JSON form so
// YAML and TOON use the same camelCase keys as JSON.
func plain(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return numbers(v), nil
}

// numbers replaces json.Number with int64 or float64.
func numbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = numbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = numbers(e)
		}
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	}
	return v
}

func writeYAML(w io.Writer, data any) error {
	v, err := plain(data)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeTOON(w io.Writer, data any) error {
	v, err := plain(data)
	if err != nil {
		return err
	}
	out, err := toon.Marshal(v, toon.WithIndent(2))
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// Table is a Renderable table with headers, rows, and optional footer.
type Table struct {
	Title   string     `json:"-"`
	Headers []string   `json:"-"`
	Rows    [][]string `json:"-"`
	Footer  []string   `json:"-"`
	Data    any        `json:"data,omitempty"`
}

// NewTable creates a table that wraps structured data for serialization.
func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    rows,
		Footer:  footer,
		Data:    data,
	}
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string)
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		writeTitle(w, t.Title, "=", colored, color.Bold)
		fmt.Fprintln(w)
	}
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "(none)")
		fmt.Fprintln(w)
		return nil
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Footer: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)

	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		footerArgs := make([]any, len(t.Footer))
		for i, f := range t.Footer {
			footerArgs[i] = f
		}
		table.Footer(footerArgs...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	if len(t.Rows) == 0 {
		fmt.Fprint(w, "_none_\n\n")
		return nil
	}

	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range t.Rows {
		fmt.Fprintf(w, "| %s |\n", strings.Join(escapeCells(row), " | "))
	}
	if len(t.Footer) > 0 {
		fmt.Fprintf(w, "| %s |\n", strings.Join(escapeCells(t.Footer), " | "))
	}
	fmt.Fprintln(w)
	return nil
}

func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// Section is a Renderable titled section with content, bullet items and
// subsections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Items    []string  `json:"items,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.renderTextAtLevel(w, colored, 0)
	return nil
}

func (s *Section) renderTextAtLevel(w io.Writer, colored bool, level int) {
	if s.Title != "" {
		underline := "="
		if level > 0 {
			underline = "-"
		}
		writeTitle(w, s.Title, underline, colored, color.Bold)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for _, item := range s.Items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	for _, sub := range s.Sections {
		fmt.Fprintln(w)
		sub.renderTextAtLevel(w, colored, level+1)
	}
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	s.renderMarkdownAtLevel(w, 2)
	return nil
}

func (s *Section) renderMarkdownAtLevel(w io.Writer, level int) {
	if s.Title != "" {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s.Title)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
		fmt.Fprintln(w)
	}
	if len(s.Items) > 0 {
		for _, item := range s.Items {
			fmt.Fprintf(w, "- %s\n", item)
		}
		fmt.Fprintln(w)
	}
	for _, sub := range s.Sections {
		sub.renderMarkdownAtLevel(w, level+1)
	}
}

// Report is a compound Renderable. Structured formats serialize Data when
// set, so a report prints as tables for people and as the raw result for
// tools.
type Report struct {
	Title    string       `json:"title,omitempty"`
	Sections []Renderable `json:"-"`
	Data     any          `json:"data,omitempty"`
}

func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make([]any, len(r.Sections))
	for i, s := range r.Sections {
		parts[i] = s.RenderData()
	}
	return map[string]any{
		"title":    r.Title,
		"sections": parts,
	}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		writeTitle(w, r.Title, "=", colored, color.Bold, color.FgCyan)
		fmt.Fprintln(w)
	}
	for i, s := range r.Sections {
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
		if i < len(r.Sections)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

func writeTitle(w io.Writer, title, underline string, colored bool, attrs ...color.Attribute) {
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len(title)))
}

// Message helpers. They write to the formatter's writer so they can be
// captured in tests.

func (f *Formatter) Success(format string, args ...any) {
	f.message(color.FgGreen, "", format, args...)
}

func (f *Formatter) Warning(format string, args ...any) {
	f.message(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) Error(format string, args ...any) {
	f.message(color.FgRed, "ERROR: ", format, args...)
}

func (f *Formatter) Info(format string, args ...any) {
	f.message(color.FgCyan, "", format, args...)
}

func (f *Formatter) message(c color.Attribute, prefix, format string, args ...any) {
	if f.colored {
		color.New(c).Fprintf(f.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.writer, prefix+format+"\n", args...)
}

// SeverityColor colors text by issue severity or complexity tier.
func SeverityColor(severity, text string) string {
	switch strings.ToLower(severity) {
	case "error", "high":
		return color.RedString(text)
	case "warning", "medium":
		return color.YellowString(text)
	case "suggestion", "low":
		return color.GreenString(text)
	default:
		return text
	}
}
