package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/anderle/table-reservation/internal/model"
)

// ReservationConfirmation builds the booking confirmation email.  The
// edit/cancel URL is a magic login link scoped to the booking's email.
func ReservationConfirmation(restaurant string, res model.Reservation, editCancelURL string) Message {
	details := []string{
		fmt.Sprintf("Date: %s", res.Date.Format("02.01.2006")),
		fmt.Sprintf("Time: %s", res.Time),
		fmt.Sprintf("Guests: %d", res.PartySize),
		fmt.Sprintf("Name: %s", res.Name),
	}

	bodyLines := []string{
		fmt.Sprintf("Thank you! Your reservation at %s is confirmed.", restaurant),
		"",
	}
	bodyLines = append(bodyLines, details...)
	bodyLines = append(bodyLines,
		"",
		"Use the following link to change or cancel your reservation:",
		editCancelURL,
		"",
		"If you did not make this reservation, please ignore this email.",
	)

	var items strings.Builder
	for _, d := range details {
		items.WriteString("<li>" + html.EscapeString(d) + "</li>")
	}
	safeURL := html.EscapeString(editCancelURL)
	htmlBody := fmt.Sprintf(
		`<div style="font-family: Arial, sans-serif; font-size: 14px; line-height: 1.5;">`+
			`<p><b>Thank you!</b> Your reservation at <b>%s</b> is confirmed.</p>`+
			`<ul>%s</ul>`+
			`<p>Use the following link to <b>change</b> or <b>cancel</b> your reservation:</p>`+
			`<p><a href="%s">Change / cancel reservation</a></p>`+
			`<p style="color:#666;font-size:12px;">If you did not make this reservation, please ignore this email.</p>`+
			`</div>`,
		html.EscapeString(restaurant), items.String(), safeURL)

	return Message{
		To:       res.Email,
		Subject:  "Your reservation is confirmed",
		Body:     strings.Join(bodyLines, "\n"),
		HTMLBody: htmlBody,
	}
}

// MagicLink builds the passwordless login email.
func MagicLink(toEmail, magicURL string) Message {
	safeURL := html.EscapeString(magicURL)
	return Message{
		To:      toEmail,
		Subject: "Your login link for reservations",
		Body: strings.Join([]string{
			"Here is your link to view your reservations:",
			"",
			magicURL,
			"",
			"If you did not request this link, please ignore this email.",
		}, "\n"),
		HTMLBody: fmt.Sprintf(
			`<p>Here is your link to view your reservations:</p>`+
				`<p><a href="%s">%s</a></p>`+
				`<p>If you did not request this link, please ignore this email.</p>`,
			safeURL, safeURL),
	}
}
