package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// maxDocumentXML bounds the decompressed size of word/document.xml.
const maxDocumentXML = 64 << 20

// extractDOCX returns the body paragraphs of a Word document joined with
// newlines. Paragraphs inside tables and text boxes are not part of the
// body flow and are skipped. Empty paragraphs are kept as empty lines.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %v", ErrUnsupportedFormat, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: %s not found in archive", ErrUnsupportedFormat, docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	lr := &io.LimitedReader{R: rc, N: maxDocumentXML + 1}
	paragraphs, err := docxParagraphs(lr)
	if err != nil {
		return "", err
	}
	if lr.N <= 0 {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrUnsupportedFormat, docxBodyPart, maxDocumentXML)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func docxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inRun      bool
		inText     bool
		nested     int
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed %s: %v", ErrUnsupportedFormat, docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl", "txbxContent":
				nested++
			case "p":
				if nested == 0 {
					inPara = true
					current.Reset()
				}
			case "r":
				inRun = inPara && nested == 0
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					current.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl", "txbxContent":
				nested--
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				if inPara && nested == 0 {
					paragraphs = append(paragraphs, current.String())
					inPara = false
				}
			}
		}
	}

	return paragraphs, nil
}
