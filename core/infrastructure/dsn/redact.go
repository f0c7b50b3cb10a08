package dsn

import (
	"net/url"
	"regexp"
	"strings"
)

// Mask replaces passwords in redacted DSNs.
const Mask = "***"

// keyword/value connection strings (libpq conninfo, ADO)
var keywordPassword = regexp.MustCompile(`(?i)\b(password|pwd)\s*=\s*('[^']*'|"[^"]*"|[^\s;]*)`)

// Redact returns raw with its password replaced by Mask. A DSN without a
// password is returned unchanged. When raw does not parse as a URL the
// password is masked by pattern instead, so the secret is never echoed.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Opaque != "" || u.Host == "" && u.User != nil {
		return redactByPattern(raw)
	}
	if u.User == nil {
		// user:123#x@host parses as host "user" and port "123", leaving the
		// real userinfo in the fragment, query or path
		if _, rest, ok := strings.Cut(raw, "://"); ok && strings.Contains(rest, "@") {
			return redactByPattern(raw)
		}
		return keywordPassword.ReplaceAllString(raw, "${1}="+Mask)
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	// url.URL.String would escape the mask, so the URL is rebuilt by hand.
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(url.User(u.User.Username()).String())
	b.WriteString(":" + Mask + "@")
	b.WriteString(u.Host)
	b.WriteString(u.EscapedPath())
	if u.RawQuery != "" {
		b.WriteString("?" + u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteString("#" + u.EscapedFragment())
	}
	return b.String()
}

// redactByPattern masks everything between the first ':' of the userinfo and
// the last '@', which covers passwords that contain '@' or '/'.
func redactByPattern(raw string) string {
	raw = keywordPassword.ReplaceAllString(raw, "${1}="+Mask)

	schemeEnd := strings.Index(raw, "://")
	if schemeEnd < 0 {
		return raw
	}
	rest := raw[schemeEnd+3:]
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return raw
	}
	user, _, hasPassword := strings.Cut(rest[:at], ":")
	if !hasPassword {
		return raw
	}
	return raw[:schemeEnd+3] + user + ":" + Mask + "@" + rest[at+1:]
}
