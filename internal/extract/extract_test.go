package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Photo</w:t></w:r><w:r><w:t xml:space="preserve">synthesis converts </w:t></w:r><w:r><w:t>light.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Chlorophyll is green.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

func slideXML(texts ...string) string {
	s := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`
	for _, t := range texts {
		s += `<p:sp><p:txBody><a:p><a:r><a:t>` + t + `</a:t></a:r></a:p></p:txBody></p:sp>`
	}
	return s + `</p:spTree></p:cSld></p:sld>`
}

func TestExtractDocx(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})
	doc, err := Extract("Notes.DOCX", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Photosynthesis converts light.\nChlorophyll is green."
	if doc.Text != want {
		t.Fatalf("got %q, want %q", doc.Text, want)
	}
	if doc.Format != "docx" || doc.Inline() {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestExtractPptxSlideOrder(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml":            slideXML("Ten"),
		"ppt/slides/slide2.xml":             slideXML("Two", "Second"),
		"ppt/slides/slide1.xml":             slideXML("One"),
		"ppt/slides/_rels/slide1.xml.rels":  `<Relationships/>`,
		"ppt/slideLayouts/slideLayout1.xml": slideXML("Layout"),
	})
	doc, err := Extract("deck.pptx", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "One\n\nTwo Second\n\nTen"
	if doc.Text != want {
		t.Fatalf("got %q, want %q", doc.Text, want)
	}
}

func TestExtractLegacyBinary(t *testing.T) {
	_, err := Extract("old.doc", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestExtractUnsupported(t *testing.T) {
	for _, name := range []string{"notes.txt", "image.png", "README", "archive.zip"} {
		if _, err := Extract(name, []byte("hello")); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
		if Supported(name) {
			t.Errorf("%s should not be supported", name)
		}
	}
	if !Supported("Lecture.PPT") {
		t.Error("ppt should be supported")
	}
}

func TestExtractPDFRejectsNonPDF(t *testing.T) {
	_, err := Extract("fake.pdf", []byte("just some text"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestExtractPDFMalformed(t *testing.T) {
	_, err := Extract("broken.pdf", []byte("%PDF-1.4\n1 0 obj <<>> endobj\ntrailer <<>>\n%%EOF"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}
