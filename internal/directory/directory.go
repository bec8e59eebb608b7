package directory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials is returned when a bind with user credentials fails.
var ErrInvalidCredentials = errors.New("directory: invalid credentials")

// Record is a person as the corporate directory knows them.
type Record struct {
	GivenName string `json:"givenName"`
	Surname   string `json:"sn"`
	Mail      string `json:"mail"`
	CN        string `json:"cn"`
	UID       string `json:"uid"`
	Manager   string `json:"manager,omitempty"`
	Office    string `json:"office,omitempty"`
}

// Name is "given surname", falling back to the common name.
func (r *Record) Name() string {
	if name := strings.TrimSpace(r.GivenName + " " + r.Surname); name != "" {
		return name
	}
	return r.CN
}

// String renders the record the way mail clients show an address.
func (r *Record) String() string {
	name := r.Name()
	switch {
	case name != "" && r.Mail != "":
		return fmt.Sprintf("%s <%s>", name, r.Mail)
	case name != "":
		return name
	default:
		return r.Mail
	}
}

// Directory looks people up by email. FetchUserDetails returns nil, nil
// when nobody matches.
type Directory interface {
	FetchUserDetails(email string) (*Record, error)
	SearchUsers(query string, limit int, autocomplete bool) ([]Record, error)
	Authenticate(email, password string) (*Record, error)
}

// Static is an in-memory Directory keyed by lowercase email. It backs
// deployments without LDAP and tests.
type Static struct {
	Records   map[string]Record
	Passwords map[string]string
}

func NewStatic(records ...Record) *Static {
	s := &Static{Records: make(map[string]Record), Passwords: make(map[string]string)}
	for _, r := range records {
		s.Records[strings.ToLower(r.Mail)] = r
	}
	return s
}

func (s *Static) FetchUserDetails(email string) (*Record, error) {
	r, ok := s.Records[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Static) SearchUsers(query string, limit int, autocomplete bool) ([]Record, error) {
	query = strings.ToLower(query)
	var out []Record
	for _, r := range s.Records {
		if strings.Contains(strings.ToLower(r.Name()), query) || strings.HasPrefix(strings.ToLower(r.Mail), query) {
			out = append(out, r)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Static) Authenticate(email, password string) (*Record, error) {
	key := strings.ToLower(email)
	r, ok := s.Records[key]
	if !ok || password == "" || s.Passwords[key] != password {
		return nil, ErrInvalidCredentials
	}
	return &r, nil
}
