package directory

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"

	"pto-tracker/internal/config"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var searchAttributes = []string{"cn", "sn", "mail", "givenName", "uid", "manager", "physicalDeliveryOfficeName"}

// LDAPDirectory queries an LDAP server. Every call opens its own
// connection.
type LDAPDirectory struct {
	cfg      config.LDAPConfig
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewLDAPDirectory(cfg config.LDAPConfig) *LDAPDirectory {
	return &LDAPDirectory{
		cfg:      cfg,
		validate: validator.New(),
		logger:   logrus.StandardLogger(),
	}
}

func (d *LDAPDirectory) dial() (*ldap.Conn, error) {
	conn, err := ldap.DialURL(d.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ldap dial %s: %w", d.cfg.URL, err)
	}

	if d.cfg.StartTLS && strings.HasPrefix(d.cfg.URL, "ldap://") {
		host := ""
		if u, err := url.Parse(d.cfg.URL); err == nil {
			host = u.Hostname()
		}
		if err := conn.StartTLS(&tls.Config{ServerName: host}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ldap starttls: %w", err)
		}
	}
	return conn, nil
}

func (d *LDAPDirectory) FetchUserDetails(email string) (*Record, error) {
	records, err := d.SearchUsers(email, 1, false)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// SearchUsers finds people by mail, ":uid" or a name fragment. With
// autocomplete the query is matched as a prefix on several attributes.
func (d *LDAPDirectory) SearchUsers(query string, limit int, autocomplete bool) ([]Record, error) {
	conn, err := d.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("ldap bind: %w", err)
	}

	req := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		limit, 0, false,
		d.searchFilter(query, autocomplete),
		searchAttributes,
		nil,
	)

	result, err := conn.Search(req)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	records := make([]Record, 0, len(result.Entries))
	for _, entry := range result.Entries {
		records = append(records, recordFromEntry(entry))
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

func (d *LDAPDirectory) searchFilter(query string, autocomplete bool) string {
	if autocomplete {
		var searches [][2]string
		if strings.HasPrefix(query, ":") {
			searches = append(searches, [2]string{"uid", query[1:]})
		} else {
			searches = append(searches,
				[2]string{"givenName", query},
				[2]string{"sn", query},
				[2]string{"mail", query},
			)
			if strings.Contains(query, " ") {
				searches = append(searches, [2]string{"cn", query})
			}
		}

		var elems []string
		for _, s := range searches {
			if s[1] == "" {
				continue
			}
			elems = append(elems, fmt.Sprintf("(%s=%s*)", s[0], ldap.EscapeFilter(s[1])))
		}
		if len(elems) > 1 {
			return "(|" + strings.Join(elems, "") + ")"
		}
		return strings.Join(elems, "")
	}

	switch {
	case strings.Contains(query, "@") && d.validate.Var(query, "email") == nil:
		return fmt.Sprintf("(mail=%s)", ldap.EscapeFilter(query))
	case strings.HasPrefix(query, ":"):
		return fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(query[1:]))
	default:
		return fmt.Sprintf("(cn=*%s*)", ldap.EscapeFilter(query))
	}
}

// Authenticate binds as the user and returns their record.
func (d *LDAPDirectory) Authenticate(email, password string) (*Record, error) {
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	conn, err := d.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	userDN := fmt.Sprintf(d.cfg.UserDNTemplate, ldap.EscapeDN(email))
	if err := conn.Bind(userDN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("ldap bind %s: %w", userDN, err)
	}

	req := ldap.NewSearchRequest(
		userDN,
		ldap.ScopeBaseObject, ldap.NeverDerefAliases,
		1, 0, false,
		"(objectClass=*)",
		searchAttributes,
		nil,
	)
	result, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("ldap read %s: %w", userDN, err)
	}
	if len(result.Entries) == 0 {
		d.logger.Warnf("bind succeeded but %s has no entry", userDN)
		return &Record{Mail: email}, nil
	}
	record := recordFromEntry(result.Entries[0])
	return &record, nil
}

func recordFromEntry(entry *ldap.Entry) Record {
	return Record{
		GivenName: entry.GetAttributeValue("givenName"),
		Surname:   entry.GetAttributeValue("sn"),
		Mail:      entry.GetAttributeValue("mail"),
		CN:        entry.GetAttributeValue("cn"),
		UID:       entry.GetAttributeValue("uid"),
		Manager:   managerEmail(entry.GetAttributeValue("manager")),
		Office:    entry.GetAttributeValue("physicalDeliveryOfficeName"),
	}
}

// managerEmail turns "mail=boss@x.com,o=com,dc=mozilla" into the address.
func managerEmail(value string) string {
	if value == "" || !strings.Contains(value, "=") {
		return value
	}
	dn, err := ldap.ParseDN(value)
	if err != nil {
		return value
	}
	for _, rdn := range dn.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "mail") {
				return attr.Value
			}
		}
	}
	return value
}
