package boe

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"boe_syncer/internal/domain"
)

// parseSummary extracts the announcement items of the configured section
// from a summary document. A document without that section parses to an
// empty slice; that is the normal outcome for most days.
func (s *Source) parseSummary(body []byte) ([]domain.Announcement, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	section := xmlquery.FindOne(doc, fmt.Sprintf("//seccion[@codigo=%q]", s.sectionCode))
	if section == nil {
		return nil, nil
	}

	items := xmlquery.Find(section, ".//item")
	records := make([]domain.Announcement, 0, len(items))

	for _, item := range items {
		records = append(records, domain.Announcement{
			ExternalID:    childText(item, "identificador"),
			ControlCode:   childText(item, "control"),
			Title:         childText(item, "titulo"),
			DetailURL:     childText(item, "url_html"),
			AttachmentURL: childText(item, "url_pdf"),
			IssuingBody:   issuingBody(item),
		})
	}

	return records, nil
}

// parseDocument retries in non-strict mode when a strict parse fails, so a
// summary with minor markup defects still yields records.
func parseDocument(body []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err == nil {
		return doc, nil
	}

	return xmlquery.ParseWithOptions(bytes.NewReader(body), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{Strict: false},
	})
}

// childText returns the trimmed text of the item's named sub-field, or nil
// when the sub-field is absent or blank.
func childText(item *xmlquery.Node, name string) *string {
	node := xmlquery.FindOne(item, name)
	if node == nil {
		return nil
	}
	text := strings.TrimSpace(node.InnerText())
	if text == "" {
		return nil
	}
	return &text
}

// issuingBody walks up to the nearest departamento ancestor and reads its
// nombre attribute. Items nest under departamento, usually via an epigrafe.
func issuingBody(item *xmlquery.Node) *string {
	dept := xmlquery.FindOne(item, "ancestor::departamento")
	if dept == nil {
		return nil
	}
	name := strings.TrimSpace(dept.SelectAttr("nombre"))
	if name == "" {
		return nil
	}
	return &name
}
