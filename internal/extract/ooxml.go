package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var errNotOOXML = errors.New("not an Office Open XML package (legacy binary files must be re-saved as .docx/.pptx)")

func openPackage(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errNotOOXML
	}
	return zr, nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, 64<<20))
}

// wordText reads the w:t runs of word/document.xml, one line per paragraph.
func wordText(data []byte) (string, error) {
	zr, err := openPackage(data)
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		b, err := readPart(f)
		if err != nil {
			return "", err
		}
		return runs(b, "t", "p", "")
	}
	return "", fmt.Errorf("%w: word/document.xml missing", errNotOOXML)
}

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// slidesText reads the a:t runs of each slide in slide order. Runs are
// joined by spaces and slides by a blank line.
func slidesText(data []byte) (string, error) {
	zr, err := openPackage(data)
	if err != nil {
		return "", err
	}

	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{n, f})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: no slides", errNotOOXML)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	out := make([]string, 0, len(slides))
	for _, s := range slides {
		b, err := readPart(s.f)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.n, err)
		}
		text, err := runs(b, "t", "", " ")
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.n, err)
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

// runs collects the character data of every textTag element. A closing
// breakTag ends a line; sep joins runs within a line.
func runs(doc []byte, textTag, breakTag, sep string) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var (
		lines []string
		line  []string
		cur   strings.Builder
		inRun bool
	)
	flush := func() {
		if l := strings.TrimSpace(strings.Join(line, sep)); l != "" {
			lines = append(lines, l)
		}
		line = line[:0]
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textTag {
				inRun = true
				cur.Reset()
			}
		case xml.CharData:
			if inRun {
				cur.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textTag:
				inRun = false
				if cur.Len() > 0 {
					line = append(line, cur.String())
				}
			case breakTag:
				flush()
			}
		}
	}
	flush()

	joiner := "\n"
	if breakTag == "" {
		joiner = sep
	}
	return strings.Join(lines, joiner), nil
}
