package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendFlagSummary(to []string, summary FlagSummary) error
}

// FlagSummary is the digest sent after a flagging job completes.
type FlagSummary struct {
	JobId       string
	ChangedLaw  string
	WhatChanged string
	TotalFound  int
	Validated   int
	Flagged     int
	Documents   []FlaggedDocument
}

type FlaggedDocument struct {
	Title            string
	URL              string
	SuggestionsCount int
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendFlagSummary(to []string, summary FlagSummary) error {
	if len(to) == 0 {
		return nil
	}

	m := BuildFlagSummary(s.senderEmail, s.senderName, to, summary)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send flag summary for job %s: %w", summary.JobId, err)
	}
	return nil
}

func BuildFlagSummary(from, fromName string, to []string, summary FlagSummary) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, fromName)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", fmt.Sprintf("%d documents flagged for %s", summary.Flagged, summary.ChangedLaw))
	m.SetBody("text/html", flagSummaryBody(summary))
	return m
}

func flagSummaryBody(summary FlagSummary) string {
	var rows strings.Builder
	for _, d := range summary.Documents {
		fmt.Fprintf(&rows, `<tr><td><a href="%s">%s</a></td><td style="text-align:right;">%d</td></tr>`,
			html.EscapeString(d.URL), html.EscapeString(d.Title), d.SuggestionsCount)
	}

	change := ""
	if summary.WhatChanged != "" {
		change = fmt.Sprintf("<p><strong>Change:</strong> %s</p>", html.EscapeString(summary.WhatChanged))
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Law change review: %s</h2>
			%s
			<p>%d candidates found, %d confirmed, %d flagged.</p>
			<table style="border-collapse: collapse; width: 100%%;">
				<tr><th style="text-align:left;">Document</th><th style="text-align:right;">Suggestions</th></tr>
				%s
			</table>
			<p style="color: #888;">Job %s</p>
		</div>
	`, html.EscapeString(summary.ChangedLaw), change,
		summary.TotalFound, summary.Validated, summary.Flagged,
		rows.String(), summary.JobId)
}
