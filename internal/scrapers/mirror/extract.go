package mirror

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor finds the document reference in a mirror response body. It is the only place
// that knows what the page looks like.
type Extractor interface {
	Extract(body []byte) (string, error)
}

// PDFEmbedExtractor reads the reference from the attribute of the element with a fixed id,
// the mirror renders the document in `<embed id="pdf" src="...">`.
type PDFEmbedExtractor struct {
	ElementId string
	Attribute string
}

func DefaultExtractor() PDFEmbedExtractor {
	return PDFEmbedExtractor{ElementId: "pdf", Attribute: "src"}
}

func (e PDFEmbedExtractor) Extract(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %w", ErrExtraction, err)
	}

	element := doc.Find(fmt.Sprintf(`[id="%s"]`, e.ElementId)).First()
	if element.Length() == 0 {
		return "", fmt.Errorf("%w: no element with id %q", ErrExtraction, e.ElementId)
	}
	src, ok := element.Attr(e.Attribute)
	if !ok || strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("%w: element %q has no %s", ErrExtraction, e.ElementId, e.Attribute)
	}

	ref := NormalizeReference(src)
	if !strings.HasSuffix(ref, ".pdf") {
		return "", fmt.Errorf("%w: %q is not a pdf", ErrExtraction, ref)
	}
	return ref, nil
}

var duplicateSlashes = regexp.MustCompile(`/{2,}`)

// NormalizeReference drops the viewer fragment (#navpanes=0&view=FitH) and any query string,
// then collapses duplicate path separators. The scheme separator of an absolute url is kept.
func NormalizeReference(ref string) string {
	ref = strings.TrimSpace(ref)
	ref, _, _ = strings.Cut(ref, "#")
	ref, _, _ = strings.Cut(ref, "?")

	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(ref), scheme) {
			rest := ref[len(scheme):]
			return ref[:len(scheme)] + duplicateSlashes.ReplaceAllString(rest, "/")
		}
	}
	return duplicateSlashes.ReplaceAllString(ref, "/")
}
