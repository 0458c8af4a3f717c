package dataframe

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// DefaultNullValues are the cell contents read as missing.
var DefaultNullValues = []string{
	"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None",
	"#N/A", "n/a", "-NaN", "-nan", "<NA>",
}

// LoadOptions controls how a file is parsed.
type LoadOptions struct {
	// Delimiter for delimited text. Zero means ','.
	Delimiter rune
	// Sheet selects the worksheet of an .xlsx file. Empty picks the first sheet.
	Sheet string
	// Schema declares column kinds; undeclared columns are inferred.
	// An exact key wins over one differing only in case.
	Schema map[string]Kind
	// NullValues replaces DefaultNullValues when non-nil.
	NullValues []string
	// Encoding of delimited text: "utf-8" (default, BOM stripped), "latin1"
	// or "windows-1252".
	Encoding string
}

func textDecoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return unicode.UTF8BOM, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, errors.NewValidationError("encoding", "unsupported text encoding", name)
	}
}

func (o LoadOptions) nullSet() map[string]bool {
	values := o.NullValues
	if values == nil {
		values = DefaultNullValues
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Load reads path, choosing the reader by extension: .xlsx files go through
// ReadXLSX, everything else is treated as delimited text.
func Load(path string, opts LoadOptions) (*Frame, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opts)
	}
	return ReadCSV(path, opts)
}

// ReadCSV reads a delimited text file with a header row.
func ReadCSV(path string, opts LoadOptions) (*Frame, error) {
	enc, err := textDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer file.Close()

	return readDelimited(transform.NewReader(file, enc.NewDecoder()), path, opts)
}

func readDelimited(r io.Reader, path string, opts LoadOptions) (*Frame, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(errors.ErrEmptyData, "read %s: no header row", path)
	}
	if err != nil {
		return nil, errors.NewParseError(path, lineOf(err), err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParseError(path, lineOf(err), err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, errors.NewParseError(path, line,
				fmt.Errorf("expected %d fields, saw %d", len(header), len(rec)))
		}
		rows = append(rows, rec)
	}
	return build(header, rows, opts)
}

// ReadXLSX reads one worksheet of an Excel workbook. The first row is the header.
func ReadXLSX(path string, opts LoadOptions) (*Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, openError(path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParseError(path, 0, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Wrapf(errors.ErrEmptyData, "read %s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParseError(path, 0, err)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "read %s: sheet %q is empty", path, sheet)
	}
	// GetRows は末尾の空セルを省略するため、ヘッダより長い行だけを不正とみなす
	for i, row := range rows[1:] {
		if len(row) > len(rows[0]) {
			return nil, errors.NewParseError(path, i+2,
				fmt.Errorf("expected %d fields, saw %d", len(rows[0]), len(row)))
		}
	}
	return build(rows[0], rows[1:], opts)
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Mark(errors.Wrapf(err, "open %s", path), errors.ErrFileNotFound)
	}
	return errors.Wrapf(err, "open %s", path)
}

func lineOf(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}

// declared looks up the schema entry of a column. Keys match exactly first,
// then case-insensitively, since viper lowercases map keys read from config.
func (o LoadOptions) declared(name string) (Kind, bool) {
	if k, ok := o.Schema[name]; ok {
		return k, true
	}
	for key, k := range o.Schema {
		if strings.EqualFold(key, name) {
			return k, true
		}
	}
	return Numeric, false
}

// build converts raw cells into typed series.
func build(header []string, rows [][]string, opts LoadOptions) (*Frame, error) {
	nulls := opts.nullSet()
	names := columnNames(header)
	series := make([]*Series, len(names))

	for j, name := range names {
		cells := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for i, row := range rows {
			if j < len(row) && !nulls[row[j]] {
				cells[i] = row[j]
				valid[i] = true
			}
		}

		kind, declared := opts.declared(name)
		if !declared {
			kind = infer(cells, valid)
		}
		if kind == Categorical {
			series[j] = NewCategorical(name, cells, valid)
			continue
		}
		s, coerced := parseNumeric(name, cells, valid)
		if coerced > 0 {
			errors.Warn(errors.NewDataConversionWarning(name, Categorical.String(), Numeric.String(),
				fmt.Sprintf("%d non-numeric cells read as missing", coerced)))
		}
		series[j] = s
	}
	return New(series...)
}

// columnNames は空の列名と重複した列名を一意な名前に置き換えます。
func columnNames(header []string) []string {
	names := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	// 元の名前ごとの最後の連番
	suffix := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if taken[name] {
			base := name
			for k := suffix[base] + 1; ; k++ {
				name = fmt.Sprintf("%s.%d", base, k)
				if !taken[name] {
					suffix[base] = k
					break
				}
			}
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// infer treats a column as numeric when every present cell parses as a float.
// All-missing columns are numeric.
func infer(cells []string, valid []bool) Kind {
	for i, c := range cells {
		if !valid[i] {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err != nil {
			return Categorical
		}
	}
	return Numeric
}

func parseNumeric(name string, cells []string, valid []bool) (*Series, int) {
	values := make([]float64, len(cells))
	coerced := 0
	for i, c := range cells {
		if !valid[i] {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			values[i] = math.NaN()
			coerced++
			continue
		}
		values[i] = v
	}
	return &Series{Name: name, Kind: Numeric, Float: values}, coerced
}
