package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractWorkbook renders every sheet as "cell | cell" lines so row
// context survives chunking and lexical search.
func extractWorkbook(raw []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if strings.Trim(line, "| ") == "" {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Sheet: " + sheet + "\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}
	return sb.String(), nil
}
