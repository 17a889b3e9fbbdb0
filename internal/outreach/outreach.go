// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outreach composes first-contact email drafts for scored leads.
package outreach

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/leadgen/pkg/types"
)

// Subject is the subject line of every draft.
const Subject = "Interest in 3D In-Vitro Models for Drug Safety Research"

const (
	defaultTitle   = "research"
	defaultCompany = "your institution"
)

// Draft is a plain-text email ready to paste or open in a mail client.
type Draft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Compose builds a personalized draft for l. Missing title and company fall
// back to generic phrasing.
func Compose(l types.Lead) Draft {
	title := strings.TrimSpace(l.Title)
	if title == "" {
		title = defaultTitle
	}
	company := strings.TrimSpace(l.Company)
	if company == "" || strings.EqualFold(company, "unknown") {
		company = defaultCompany
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", strings.TrimSpace(l.Name))
	fmt.Fprintf(&b, "I came across your work in %s at %s and wanted to reach out. ", title, company)
	b.WriteString("Our 3D in-vitro liver models help safety and toxicology teams detect ")
	b.WriteString("drug-induced liver injury earlier than 2D cultures, with spheroid and ")
	b.WriteString("organ-on-chip formats that fit existing screening workflows.\n\n")
	b.WriteString("Would you be open to a short call to see whether they could support ")
	b.WriteString("your current projects?\n\n")
	b.WriteString("Best regards,\n")

	return Draft{
		To:      l.Email,
		Subject: Subject,
		Body:    b.String(),
	}
}

// MailtoURL returns a mailto: link that opens the draft in a mail client.
func (d Draft) MailtoURL() string {
	q := "subject=" + escape(d.Subject) + "&body=" + escape(d.Body)
	return "mailto:" + url.PathEscape(d.To) + "?" + q
}

// escape query-escapes s using %20 for spaces, which mail clients expect in
// mailto links.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
