package model

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// MaxSubscriberEmailLength follows the RFC 5321 path limit.
const MaxSubscriberEmailLength = 254

// domainLabelRegex matches a single DNS label.
var domainLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// SubscriberEmail is a syntactically valid email address.
// No DNS or deliverability checks are performed.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates raw and wraps it.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if raw == "" {
		return SubscriberEmail{}, invalid("email", "is empty")
	}

	if len(raw) > MaxSubscriberEmailLength {
		return SubscriberEmail{}, invalid("email", "is too long")
	}

	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return SubscriberEmail{}, invalid("email", "contains whitespace")
	}

	if strings.Count(raw, "@") != 1 {
		return SubscriberEmail{}, invalid("email", "is not a valid email address")
	}

	local, domain, _ := strings.Cut(raw, "@")
	if local == "" || domain == "" {
		return SubscriberEmail{}, invalid("email", "is not a valid email address")
	}

	if strings.HasPrefix(domain, "[") {
		if !validDomainLiteral(domain) {
			return SubscriberEmail{}, invalid("email", "has an invalid domain")
		}
		return SubscriberEmail{value: raw}, nil
	}

	if !strings.Contains(domain, ".") {
		return SubscriberEmail{}, invalid("email", "domain must contain a dot")
	}

	// Internationalised domains are checked in their punycode form.
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return SubscriberEmail{}, invalid("email", "has an invalid domain")
	}

	for _, label := range strings.Split(ascii, ".") {
		if len(label) > 63 || !domainLabelRegex.MatchString(label) {
			return SubscriberEmail{}, invalid("email", "has an invalid domain")
		}
	}

	return SubscriberEmail{value: raw}, nil
}

// validDomainLiteral accepts "[192.0.2.1]" and "[IPv6:2001:db8::1]".
func validDomainLiteral(domain string) bool {
	inner, ok := strings.CutSuffix(strings.TrimPrefix(domain, "["), "]")
	if !ok || inner == "" {
		return false
	}

	if v6, isV6 := strings.CutPrefix(inner, "IPv6:"); isV6 {
		addr, err := netip.ParseAddr(v6)
		return err == nil && addr.Is6() && !addr.Is4In6()
	}

	addr, err := netip.ParseAddr(inner)
	return err == nil && addr.Is4()
}

// String returns the underlying address.
func (e SubscriberEmail) String() string {
	return e.value
}

// Redacted masks the local part for logging.
// "john.doe@example.com" becomes "jo***@example.com".
func (e SubscriberEmail) Redacted() string {
	local, domain, ok := strings.Cut(e.value, "@")
	if !ok {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
