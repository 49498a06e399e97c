package services

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

// PDFParserService returns the plain text of a CV file.
type PDFParserService interface {
	ExtractText(filePath string) (*PDFContent, error)
}

type PDFContent struct {
	Text         string
	PageCount    int
	SkippedPages int
	FilePath     string
}

type pdfParserService struct {
	logger *zap.Logger
}

func NewPDFParserService(logger *zap.Logger) PDFParserService {
	return &pdfParserService{logger: logger.Named("pdf")}
}

// ExtractText reads every page of the PDF at filePath. Pages that fail to
// decode are skipped; a document without any text is rejected.
func (p *pdfParserService) ExtractText(filePath string) (*PDFContent, error) {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NotFound(apperrors.CodeDocumentNotFound, "file does not exist: %s", filePath)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "failed to open PDF %s: %v", filePath, err)
	}
	defer f.Close()

	var (
		pages   = r.NumPage()
		builder strings.Builder
		skipped int
	)
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			skipped++
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			skipped++
			p.logger.Warn("skipping unreadable page",
				zap.String("file", filePath),
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}

		builder.WriteString(text)
		builder.WriteByte('\n')
	}

	text := CleanText(builder.String())
	if text == "" {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "no text content found in PDF %s", filePath)
	}

	p.logger.Debug("pdf text extracted",
		zap.String("file", filePath),
		zap.Int("pages", pages),
		zap.Int("skipped_pages", skipped),
		zap.Int("chars", len(text)),
	)

	return &PDFContent{
		Text:         text,
		PageCount:    pages,
		SkippedPages: skipped,
		FilePath:     filePath,
	}, nil
}

var blankRuns = regexp.MustCompile(`[ \t\x{00a0}\x{2007}\x{202f}]+`)

// CleanText collapses horizontal whitespace (including non-breaking spaces
// left by PDF exporters), trims every line and drops empty ones.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(blankRuns.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
