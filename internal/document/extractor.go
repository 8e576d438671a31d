package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Extractor convierte un archivo subido en texto plano.
type Extractor interface {
	Extract(content []byte, filename string) (string, error)
}

// FileExtractor despacha por extension del nombre de archivo.
type FileExtractor struct{}

func (FileExtractor) Extract(content []byte, filename string) (string, error) {
	return Extract(content, filename)
}

// Extract devuelve el texto del documento segun su extension (.pdf, .docx, .txt u otra).
func Extract(content []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".txt":
		if !utf8.Valid(content) {
			return "", &ParseError{Format: "TXT", Err: errors.New("content is not valid UTF-8")}
		}
		return string(content), nil
	default:
		if !utf8.Valid(content) {
			return "", &UnsupportedFormatError{Filename: filename}
		}
		return string(content), nil
	}
}

func extractPDF(content []byte) (text string, err error) {
	// ledongthuc/pdf entra en panic con algunos PDFs corruptos.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ParseError{Format: "PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ParseError{Format: "PDF", Err: err}
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			sb.WriteString("\n")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &ParseError{Format: "PDF", Err: fmt.Errorf("page %d: %w", i, err)}
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func extractDOCX(content []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ParseError{Format: "DOCX", Err: err}
	}
	defer doc.Close()

	paragraphs, err := docxParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", &ParseError{Format: "DOCX", Err: err}
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}

// docxParagraphs recorre el XML de word/document.xml y devuelve el texto de cada w:p.
// La libreria docx expone el XML crudo, no una API de parrafos.
func docxParagraphs(documentXML string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))
	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteString("\t")
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func isWordElement(name xml.Name) bool {
	const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	return name.Space == wordNS || name.Space == "w"
}
