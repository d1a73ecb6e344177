package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/askdocs/askdocs/internal/domain"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Report.DOCX", "docx"},
		{"notes.md", "md"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.name); got != tt.want {
			t.Errorf("TypeOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	got, err := Text("readme.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("extract txt: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestPlainTextRejectsBinary(t *testing.T) {
	_, err := Text("readme.txt", []byte{0xff, 0xfe, 0x00})
	if !errors.Is(err, domain.ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}

func TestUnsupportedType(t *testing.T) {
	_, err := Text("image.png", []byte("x"))
	if !errors.Is(err, domain.ErrUnsupportedFileType) {
		t.Errorf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestDocxText(t *testing.T) {
	doc := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`
	data := buildZip(t, map[string]string{"word/document.xml": doc})

	got, err := Text("report.docx", data)
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	want := "First paragraph.\nSecond paragraph."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDocxTextRejectsNonArchive(t *testing.T) {
	_, err := Text("report.docx", []byte("plain text, not a zip"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}

func TestXlsxText(t *testing.T) {
	shared := `<?xml version="1.0"?>
<sst><si><t>Revenue</t></si><si><r><t>Q1 </t></r><r><t>actual</t></r></si></sst>`
	sheet := `<?xml version="1.0"?>
<worksheet>
  <sheetData>
    <row><c t="s"><v>0</v></c><c><v>1500</v></c></row>
    <row><c t="s"><v>1</v></c><c t="inlineStr"><is><t>done</t></is></c></row>
  </sheetData>
</worksheet>`
	data := buildZip(t, map[string]string{
		"xl/sharedStrings.xml":     shared,
		"xl/worksheets/sheet1.xml": sheet,
	})

	got, err := Text("numbers.xlsx", data)
	if err != nil {
		t.Fatalf("extract xlsx: %v", err)
	}
	want := "Revenue 1500\nQ1 actual done"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPdfTextRejectsGarbage(t *testing.T) {
	_, err := Text("doc.pdf", []byte("definitely not a pdf"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}
