package engine

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"vizboard/internal/models"
)

// inferSample caps how many cells per column the type sniffer looks at.
const inferSample = 1000

// LoadTable reads a CSV file into a columnar table. The header row names the
// columns; every column's type is inferred from its values (boolean, number,
// currency, date, then string as the fallback). Cells are stored typed:
// numbers and currency as float64, booleans as bool, dates and strings as
// string, empty cells as nil.
func LoadTable(path, name string) (*models.Table, error) {
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, fmt.Errorf("load table: %s is empty", path)
	}

	columns := splitFields(lines[0])
	raw := make([][]string, len(lines)-1)
	for i, line := range lines[1:] {
		raw[i] = splitFields(line)
	}

	table := &models.Table{
		Name:    name,
		Columns: columns,
		Types:   make([]models.DataType, len(columns)),
		Values:  make(map[string][]any, len(columns)),
	}
	for ci, col := range columns {
		t := inferColumnType(raw, ci)
		table.Types[ci] = t
		cells := make([]any, len(raw))
		for ri, record := range raw {
			var cell string
			if ci < len(record) {
				cell = record[ci]
			}
			cells[ri] = convertCell(cell, t)
		}
		table.Values[col] = cells
	}

	log.Printf("Loaded table %q: %d rows, %d columns in %v", name, len(raw), len(columns), time.Since(start))
	return table, nil
}

func splitLines(content []byte) [][]byte {
	var lines [][]byte
	for len(content) > 0 {
		line := content
		if i := bytes.IndexByte(content, '\n'); i != -1 {
			line = content[:i]
			content = content[i+1:]
		} else {
			content = nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitFields(line []byte) []string {
	parts := bytes.Split(line, []byte{','})
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = strings.TrimSpace(string(p))
	}
	return fields
}

// inferColumnType sniffs a column's data type from its non-empty cells. Every
// sampled cell must agree; a single mismatch falls through to the next
// candidate, ending at string.
func inferColumnType(raw [][]string, col int) models.DataType {
	allBool, allNumber, allCurrency, allDate := true, true, true, true
	seen := 0
	for _, record := range raw {
		if seen >= inferSample {
			break
		}
		if col >= len(record) || record[col] == "" {
			continue
		}
		cell := record[col]
		seen++
		if !isBool(cell) {
			allBool = false
		}
		if !isNumber(cell) {
			allNumber = false
		}
		if !isCurrency(cell) {
			allCurrency = false
		}
		if !isDate(cell) {
			allDate = false
		}
		if !allBool && !allNumber && !allCurrency && !allDate {
			break
		}
	}
	switch {
	case seen == 0:
		return models.TypeString
	case allBool:
		return models.TypeBoolean
	case allNumber:
		return models.TypeNumber
	case allCurrency:
		return models.TypeCurrency
	case allDate:
		return models.TypeDate
	default:
		return models.TypeString
	}
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isCurrency accepts a leading currency symbol followed by a number,
// e.g. "$12.50" or "€1200".
func isCurrency(s string) bool {
	for _, prefix := range []string{"$", "€", "£"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			return isNumber(strings.ReplaceAll(rest, ",", ""))
		}
	}
	return false
}

// isDate matches the fixed YYYY-MM-DD layout the ingestion side emits.
func isDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func convertCell(cell string, t models.DataType) any {
	if cell == "" {
		return nil
	}
	switch t {
	case models.TypeNumber:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil
		}
		return f
	case models.TypeCurrency:
		stripped := strings.TrimLeft(cell, "$€£")
		f, err := strconv.ParseFloat(strings.ReplaceAll(stripped, ",", ""), 64)
		if err != nil {
			return nil
		}
		return f
	case models.TypeBoolean:
		return strings.EqualFold(cell, "true")
	default:
		return cell
	}
}
