package impl

import (
	"strings"

	emailverifier "github.com/AfterShip/email-verifier"
)

// DisposableChecker reports whether an address belongs to a throwaway mail
// provider.
type DisposableChecker func(email string) bool

var defaultDisposableDomains = map[string]struct{}{
	"10minutemail.com":       {},
	"burnermail.io":          {},
	"discard.email":          {},
	"dispostable.com":        {},
	"emailondeck.com":        {},
	"fakeinbox.com":          {},
	"getnada.com":            {},
	"grr.la":                 {},
	"guerrillamail.com":      {},
	"guerrillamail.net":      {},
	"guerrillamailblock.com": {},
	"mailinator.com":         {},
	"maildrop.cc":            {},
	"mailnesia.com":          {},
	"mintemail.com":          {},
	"mohmal.com":             {},
	"mytemp.email":           {},
	"sharklasers.com":        {},
	"spam4.me":               {},
	"temp-mail.io":           {},
	"temp-mail.org":          {},
	"tempmail.com":           {},
	"tempr.email":            {},
	"throwawaymail.com":      {},
	"trashmail.com":          {},
	"yopmail.com":            {},
}

// NewDisposableChecker flags addresses whose domain is on the
// email-verifier disposable list or on the built-in list. Extra domains
// are matched the same way as NewDomainListChecker matches them.
func NewDisposableChecker(extra ...string) DisposableChecker {
	checks := []DisposableChecker{verifierChecker(emailverifier.NewVerifier()), NewDomainListChecker()}
	if len(extra) > 0 {
		checks = append(checks, NewDomainListChecker(extra...))
	}
	return func(email string) bool {
		for _, check := range checks {
			if check(email) {
				return true
			}
		}
		return false
	}
}

func verifierChecker(v *emailverifier.Verifier) DisposableChecker {
	return func(email string) bool {
		host := emailDomain(email)
		return host != "" && v.IsDisposable(host)
	}
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(email[at+1:]), "."))
}

// NewDomainListChecker matches the address domain, or any parent of it,
// against domains. With no domains the built-in list is used.
func NewDomainListChecker(domains ...string) DisposableChecker {
	set := defaultDisposableDomains
	if len(domains) > 0 {
		set = make(map[string]struct{}, len(domains))
		for _, d := range domains {
			set[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
		}
	}
	return func(email string) bool {
		host := emailDomain(email)
		for host != "" {
			if _, ok := set[host]; ok {
				return true
			}
			dot := strings.IndexByte(host, '.')
			if dot < 0 {
				break
			}
			host = host[dot+1:]
		}
		return false
	}
}
