// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusResponse acknowledges a subscription step.
type StatusResponse struct {
	Status string `json:"status"`
}

// PublishNewsletterRequest is the body of POST /newsletters.
// Pointer fields distinguish a missing field from an empty one.
type PublishNewsletterRequest struct {
	Title   *string            `json:"title"`
	Content *NewsletterContent `json:"content"`
}

// NewsletterContent carries both renditions of an issue.
type NewsletterContent struct {
	HTML *string `json:"html"`
	Text *string `json:"text"`
}

// Missing returns the name of the first absent field, or "".
func (r *PublishNewsletterRequest) Missing() string {
	switch {
	case r.Title == nil:
		return "title"
	case r.Content == nil:
		return "content"
	case r.Content.HTML == nil:
		return "content.html"
	case r.Content.Text == nil:
		return "content.text"
	}
	return ""
}

// PublishNewsletterResponse reports a completed broadcast.
type PublishNewsletterResponse struct {
	IssueID   string `json:"issue_id"`
	Delivered int    `json:"delivered"`
	Skipped   int    `json:"skipped"`
}
