// Package safesource decides which externally supplied media URLs may seed a
// generation request. The predicate fails closed: anything that does not
// parse is unsafe, never a panic.
package safesource

import (
	"net/url"
	"strings"
)

// deniedHosts blocks loopback/local names plus file hosts whose links expire
// or rate-limit too aggressively to be usable as generation seeds.
var deniedHosts = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"::1",
	"host.docker.internal",
	"file.io",
	"tmpfiles.org",
	"transfer.sh",
}

// Filter gates seed-image URLs. The zero value uses the built-in deny-list.
type Filter struct {
	denied map[string]bool
}

// New builds a Filter with the built-in deny-list plus any extra hosts.
func New(extraDenied ...string) *Filter {
	denied := make(map[string]bool, len(deniedHosts)+len(extraDenied))
	for _, h := range deniedHosts {
		denied[h] = true
	}
	for _, h := range extraDenied {
		denied[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return &Filter{denied: denied}
}

// Safe reports whether raw may be forwarded as a provider seed image.
// Requirements: absolute https URL, host with at least one dot, host not on
// the deny-list. The dot requirement also rejects some valid numeric hosts;
// that trade-off is accepted rather than special-cased.
func (f *Filter) Safe(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !u.IsAbs() || u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if f.denied == nil {
		f = New()
	}
	if f.denied[host] {
		return false
	}
	if !strings.Contains(host, ".") {
		return false
	}
	return true
}
