package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// Content types of supported uploads.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeTXT  = "text/plain"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var supportedExtensions = map[string]string{
	".pdf":  ContentTypePDF,
	".txt":  ContentTypeTXT,
	".docx": ContentTypeDOCX,
}

// ErrUnsupportedFileType is returned for extensions other than pdf, txt and docx.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ExtractedSection is a unit of text pulled from a file. PDF pages become one
// section each; Page is zero for formats without pages.
type ExtractedSection struct {
	Text string
	Page int
}

// SetPDFLicense registers the UniDoc metered key. An empty key leaves the
// library unlicensed.
func SetPDFLicense(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set unidoc license key: %w", err)
	}
	return nil
}

// IsSupportedFile reports whether the file extension can be ingested.
func IsSupportedFile(name string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ContentTypeFor maps a filename to its upload content type.
func ContentTypeFor(name string) string {
	if ct, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// shortType is the short label stored in chunk metadata.
func shortType(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ExtractText returns the text content of an uploaded file.
func ExtractText(name string, data []byte) ([]ExtractedSection, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".txt":
		return []ExtractedSection{{Text: string(data)}}, nil
	case ".pdf":
		return extractTextFromPDF(bytes.NewReader(data))
	case ".docx":
		text, err := extractTextFromDOCX(data)
		if err != nil {
			return nil, err
		}
		return []ExtractedSection{{Text: text}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
}

// extractTextFromPDF uses UniPDF to get the text of every page.
func extractTextFromPDF(r io.ReadSeeker) ([]ExtractedSection, error) {
	pdfReader, err := model.NewPdfReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to count pdf pages: %w", err)
	}

	sections := make([]ExtractedSection, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, ExtractedSection{Text: text, Page: i})
	}
	return sections, nil
}

// extractTextFromDOCX reads paragraphs out of word/document.xml.
func extractTextFromDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
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
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	var (
		paragraphs []string
		cur        strings.Builder
		inText     bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(cur.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
