package parse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxParser extracts paragraph text from word/document.xml inside the
// OOXML container.
type docxParser struct{}

func (docxParser) Parse(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return extractDocxText(rc)
}

// extractDocxText streams document.xml, emitting <w:t> runs and a
// newline per closed <w:p> paragraph.
func extractDocxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	inRun := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inRun = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inRun {
				sb.Write(el)
			}
		}
	}

	return sb.String(), nil
}
