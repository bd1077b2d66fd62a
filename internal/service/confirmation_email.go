package service

import (
	"fmt"
	"net/url"
)

const confirmationSubject = "Welcome!"

// confirmationLink builds the link a subscriber visits to confirm.
func confirmationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", baseURL, url.QueryEscape(token))
}

// confirmationBodies returns the HTML and plain-text bodies. Both carry the same link.
func confirmationBodies(link string) (htmlBody, textBody string) {
	htmlBody = fmt.Sprintf(
		"Welcome to our newsletter!<br />Click <a href=\"%s\">here</a> to confirm your subscription.",
		link,
	)
	textBody = fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)
	return htmlBody, textBody
}
