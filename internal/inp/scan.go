package inp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CommentMarker starts a comment, either as the first non-blank character of
// a line or anywhere outside a quoted segment.
const CommentMarker = ';'

// maxLineSize bounds a single source line.
const maxLineSize = 1024 * 1024

// Record is one scanned data row.
type Record struct {
	// Section is the upper-cased header the row belongs to.
	Section string

	// Fields holds the row's tokens in order. Fields[0] is the element name
	// for every element-declaring section.
	Fields []string

	// Line is the 1-based source line number.
	Line int
}

// Name returns the first field, or "" for an empty row.
func (r Record) Name() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0]
}

// Field returns the i-th field, or "" when the row is shorter.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Table maps section names to their rows in file order.
type Table struct {
	sections map[string][]Record
	order    []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{sections: make(map[string][]Record)}
}

// Rows returns the rows of a section in file order. A missing section
// yields an empty slice.
func (t *Table) Rows(section string) []Record {
	rows := t.sections[strings.ToUpper(section)]
	if rows == nil {
		return []Record{}
	}
	return rows
}

// Has reports whether the section header appeared in the source.
func (t *Table) Has(section string) bool {
	_, ok := t.sections[strings.ToUpper(section)]
	return ok
}

// Sections returns section names in order of first appearance.
func (t *Table) Sections() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Names returns the first field of every row in the section.
func (t *Table) Names(section string) []string {
	rows := t.Rows(section)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if n := r.Name(); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// NameSet returns the element names declared across the given sections.
func (t *Table) NameSet(sections ...string) map[string]bool {
	set := make(map[string]bool)
	for _, s := range sections {
		for _, n := range t.Names(s) {
			set[n] = true
		}
	}
	return set
}

func (t *Table) openSection(name string) {
	if _, ok := t.sections[name]; ok {
		return
	}
	t.sections[name] = []Record{}
	t.order = append(t.order, name)
}

func (t *Table) append(rec Record) {
	t.sections[rec.Section] = append(t.sections[rec.Section], rec)
}

// Scan reads native model text into a section table.
//
// Comment lines and blank lines are skipped. A header missing its closing
// bracket or naming no section, a bracket in a data row, and a line too long
// to buffer are each a *StructuralError.
func Scan(r io.Reader) (*Table, error) {
	table := NewTable()
	current := ""

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == CommentMarker {
			continue
		}

		if line[0] == '[' {
			name, err := parseHeader(line, lineNum)
			if err != nil {
				return nil, err
			}
			current = name
			table.openSection(current)
			continue
		}

		fields := Tokenize(line)
		if hasBracket(fields) {
			return nil, &StructuralError{Line: lineNum, Text: line, Message: "unexpected bracket character"}
		}
		if current == "" || len(fields) == 0 {
			continue
		}
		table.append(Record{Section: current, Fields: fields, Line: lineNum})
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &StructuralError{Line: lineNum + 1, Message: fmt.Sprintf("line exceeds %d bytes", maxLineSize)}
		}
		return nil, err
	}

	return table, nil
}

// hasBracket reports a bracket in the data part of a row. Brackets are only
// valid in section headers.
func hasBracket(fields []string) bool {
	for _, f := range fields {
		if strings.ContainsAny(f, "[]") {
			return true
		}
	}
	return false
}

// ScanBytes is Scan over an in-memory source.
func ScanBytes(src []byte) (*Table, error) {
	return Scan(bytes.NewReader(src))
}

func parseHeader(line string, lineNum int) (string, error) {
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", &StructuralError{Line: lineNum, Text: line, Message: "section header missing closing bracket"}
	}
	if rest := strings.TrimSpace(line[end+1:]); rest != "" && rest[0] != CommentMarker {
		return "", &StructuralError{Line: lineNum, Text: line, Message: "unexpected text after section header"}
	}
	name := strings.TrimSpace(line[1:end])
	if name == "" {
		return "", &StructuralError{Line: lineNum, Text: line, Message: "empty section name"}
	}
	return strings.ToUpper(name), nil
}

// Tokenize splits a data line on whitespace runs. A double-quoted segment is
// kept as a single token without its quotes, so `""` yields an empty token.
// An unquoted comment marker ends the line.
func Tokenize(line string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		inToken bool
	)
	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for _, r := range line {
		switch {
		case inQuote:
			if r == '"' {
				inQuote = false
				continue
			}
			cur.WriteRune(r)
		case r == '"':
			inQuote = true
			inToken = true
		case r == CommentMarker:
			flush()
			return tokens
		case r == ' ' || r == '\t' || r == '\r' || r == '\v' || r == '\f':
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}
