package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/askdocs/askdocs/internal/domain"
)

// sharedStringsXML mirrors xl/sharedStrings.xml.
type sharedStringsXML struct {
	Items []struct {
		Text  string `xml:"t"`
		Parts []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// worksheetXML mirrors the cell layout of xl/worksheets/sheetN.xml.
type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				Text string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

func xlsxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not an xlsx archive: %v", domain.ErrExtraction, err)
	}

	shared, err := readSharedStrings(reader)
	if err != nil {
		return "", err
	}

	var sheets []string
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "xl/worksheets/sheet") && strings.HasSuffix(file.Name, ".xml") {
			sheets = append(sheets, file.Name)
		}
	}
	sort.Strings(sheets)

	var b strings.Builder
	for _, name := range sheets {
		text, err := readWorksheet(reader, name, shared)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	return strings.TrimSpace(b.String()), nil
}

func readSharedStrings(reader *zip.Reader) ([]string, error) {
	content, err := readZipFile(reader, "xl/sharedStrings.xml")
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil // workbook without shared strings
	}

	var ss sharedStringsXML
	if err := xml.Unmarshal(content, &ss); err != nil {
		return nil, fmt.Errorf("%w: parse sharedStrings.xml: %v", domain.ErrExtraction, err)
	}

	out := make([]string, len(ss.Items))
	for i, item := range ss.Items {
		if item.Text != "" {
			out[i] = item.Text
			continue
		}
		var parts strings.Builder
		for _, p := range item.Parts {
			parts.WriteString(p.Text)
		}
		out[i] = parts.String()
	}
	return out, nil
}

func readWorksheet(reader *zip.Reader, name string, shared []string) (string, error) {
	content, err := readZipFile(reader, name)
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", nil
	}

	var ws worksheetXML
	if err := xml.Unmarshal(content, &ws); err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", domain.ErrExtraction, name, err)
	}

	var b strings.Builder
	for _, row := range ws.Rows {
		var cells []string
		for _, c := range row.Cells {
			var val string
			switch c.Type {
			case "s":
				idx, err := strconv.Atoi(c.Value)
				if err == nil && idx >= 0 && idx < len(shared) {
					val = shared[idx]
				}
			case "inlineStr":
				val = c.Inline.Text
			default:
				val = c.Value
			}
			val = strings.TrimSpace(val)
			if val != "" {
				cells = append(cells, val)
			}
		}
		if len(cells) > 0 {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(strings.Join(cells, " "))
		}
	}

	return b.String(), nil
}

// readZipFile returns the file contents, or nil if the entry is absent.
func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrExtraction, name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, name, err)
		}
		return content, nil
	}
	return nil, nil
}
