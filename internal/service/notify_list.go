package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate      = validator.New()
	bracketedMail = regexp.MustCompile(`<([\w.\-]+@[\w.\-]+)>`)
)

// ParseNotifyList extracts addresses from free text such as
// "a@x.com, Peter B <p@x.com>; b@x.com". Invalid addresses are dropped,
// a blacklisted one rejects the whole list.
func ParseNotifyList(text string, blacklist []string) ([]string, error) {
	blocked := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		blocked[strings.ToLower(strings.TrimSpace(b))] = true
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool { return r == ';' || r == ',' })

	seen := make(map[string]bool)
	var emails []string
	for _, token := range tokens {
		email := strings.TrimSpace(token)
		if email == "" {
			continue
		}

		lt, at, gt := strings.LastIndex(email, "<"), strings.LastIndex(email, "@"), strings.LastIndex(email, ">")
		if lt > -1 && lt < at && at < gt {
			m := bracketedMail.FindStringSubmatch(email)
			if m == nil {
				continue
			}
			email = strings.TrimSpace(m[1])
		}

		if !validEmail(email) {
			continue
		}
		if blocked[strings.ToLower(email)] {
			return nil, newValidationError("notify", fmt.Sprintf("Can't send email to %s", email))
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails, nil
}

// JoinNotifyList is the stored form of a parsed list.
func JoinNotifyList(emails []string) string {
	return strings.Join(emails, "; ")
}

// SplitNotifyList reverses JoinNotifyList.
func SplitNotifyList(stored string) []string {
	var out []string
	for _, e := range strings.Split(stored, ";") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func validEmail(value string) bool {
	return value != "" && validate.Var(value, "required,email") == nil
}
