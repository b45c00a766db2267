package httpapi

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"auth-service/internal/security"
	"auth-service/internal/server/httperr"
)

const locationBody = "body"

// check reports a message when value fails, "" when it passes.
type check func(value string) string

// fieldRule is the ordered list of checks for one body field. Only the first failing check is reported.
type fieldRule struct {
	path   string
	trim   bool
	checks []check
}

// ruleSet is the declarative validation for one endpoint, evaluated before the workflow runs.
type ruleSet []fieldRule

func required(msg string) check {
	return func(v string) string {
		if v == "" {
			return msg
		}
		return ""
	}
}

func email(msg string) check {
	return func(v string) string {
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndex(v, "@")+1:], ".") {
			return msg
		}
		return ""
	}
}

// maxBytes bounds the encoded length, which is what bcrypt limits.
func maxBytes(n int, msg string) check {
	return func(v string) string {
		if len(v) > n {
			return msg
		}
		return ""
	}
}

func minLength(n int, msg string) check {
	return func(v string) string {
		if utf8.RuneCountInString(v) < n {
			return msg
		}
		return ""
	}
}

var registerRules = ruleSet{
	{path: "firstName", trim: true, checks: []check{required("First name is required!")}},
	{path: "lastName", trim: true, checks: []check{required("Last name is required!")}},
	{path: "email", trim: true, checks: []check{required("Email is required!"), email("Email should be valid!")}},
	{path: "password", checks: []check{
		required("Password is required!"),
		minLength(8, "Password should be at least 8 chars!"),
		maxBytes(security.MaxPasswordBytes, "Password should be at most 72 bytes!"),
	}},
}

var loginRules = ruleSet{
	{path: "email", trim: true, checks: []check{required("Email is required!"), email("Email should be valid!")}},
	{path: "password", checks: []check{required("Password is required!")}},
}

// apply runs the rules against fields, writing trimmed values back, and returns a
// *validationError listing every failing field, or nil.
func (rs ruleSet) apply(fields map[string]*string) error {
	var items []httperr.Item
	for _, rule := range rs {
		p, ok := fields[rule.path]
		if !ok {
			continue
		}
		if rule.trim {
			*p = strings.TrimSpace(*p)
		}
		for _, c := range rule.checks {
			if msg := c(*p); msg != "" {
				items = append(items, httperr.Item{Type: httperr.TypeValidation, Msg: msg, Path: rule.path, Location: locationBody})
				break
			}
		}
	}
	if len(items) > 0 {
		return &validationError{items: items}
	}
	return nil
}
