package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Label is one row of the label table.
type Label struct {
	Index int
	MID   string
	// Name is the canonical display_name column.
	Name string
	// Display is the localized column when present, else Name.
	Display string
}

// Labels is the ordered label table indexed by class position.
type Labels struct {
	entries []Label
	byName  map[string]int
}

// NewLabels builds a table from display names in class order.
func NewLabels(names ...string) *Labels {
	entries := make([]Label, len(names))
	for i, n := range names {
		entries[i] = Label{Index: i, Name: n, Display: n}
	}
	return newLabels(entries)
}

func newLabels(entries []Label) *Labels {
	l := &Labels{entries: entries, byName: make(map[string]int, 2*len(entries))}
	for i, e := range entries {
		for _, key := range []string{e.Name, e.Display} {
			k := strings.ToLower(key)
			if _, exists := l.byName[k]; !exists && k != "" {
				l.byName[k] = i
			}
		}
	}
	return l
}

// Len returns the number of classes.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Display returns the human-readable label of class idx, or "unknown#idx".
func (l *Labels) Display(idx int) string {
	if l == nil || idx < 0 || idx >= len(l.entries) {
		return "unknown#" + strconv.Itoa(idx)
	}
	return l.entries[idx].Display
}

// Lookup finds a class by canonical or localized name, ignoring case.
func (l *Labels) Lookup(name string) (int, bool) {
	if l == nil {
		return 0, false
	}
	idx, ok := l.byName[strings.ToLower(name)]
	return idx, ok
}

// Entries returns a copy of the table.
func (l *Labels) Entries() []Label {
	if l == nil {
		return nil
	}
	out := make([]Label, len(l.entries))
	copy(out, l.entries)
	return out
}

// LoadLabels tries each path in order and returns the first table that
// parses. All failures are reported together, wrapped in ErrResourceInit.
func LoadLabels(paths ...string) (*Labels, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no label files configured", ErrResourceInit)
	}

	var errs []error
	for _, p := range paths {
		labels, err := loadLabelFile(p)
		if err == nil {
			return labels, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p, err))
	}
	return nil, fmt.Errorf("%w: unable to load labels: %w", ErrResourceInit, errors.Join(errs...))
}

func loadLabelFile(path string) (*Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLabels(f)
}

// ParseLabels reads a label CSV with a header row:
//
//	index,mid,display_name[,localized_name]
//
// Quoted fields may contain commas. Blank lines are skipped.
func ParseLabels(r io.Reader) (*Labels, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty label file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var entries []Label
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read label row: %w", err)
		}
		entries = append(entries, labelFromRecord(len(entries), record))
	}

	if len(entries) == 0 {
		return nil, errors.New("label file has no rows")
	}
	return newLabels(entries), nil
}

func labelFromRecord(idx int, record []string) Label {
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.Trim(strings.TrimSpace(record[i]), `"`)
	}

	l := Label{Index: idx, MID: field(1), Name: field(2)}
	switch {
	case len(record) >= 4 && field(3) != "":
		l.Display = field(3)
	case len(record) >= 3:
		l.Display = field(2)
	case len(record) >= 2:
		l.Display = field(1)
	default:
		l.Display = field(0)
	}
	if l.Name == "" {
		l.Name = l.Display
	}
	return l
}
