package safesource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSafe(t *testing.T) {
	f := New()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"https with domain", "https://cdn.example.com/a.jpg", true},
		{"insecure scheme", "http://cdn.example.com/a.jpg", false},
		{"loopback host", "https://localhost/a.jpg", false},
		{"loopback ip", "https://127.0.0.1/a.jpg", false},
		{"not a url", "not a url", false},
		{"relative path", "/images/a.jpg", false},
		{"bare hostname", "https://cdn/a.jpg", false},
		{"empty host", "https:///a.jpg", false},
		{"unstable file host", "https://file.io/abc", false},
		{"subdomain ok", "https://img.news.example.co.kr/a.png", true},
		{"ftp scheme", "ftp://cdn.example.com/a.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Safe(tt.url), tt.url)
		})
	}
}

func TestFilterExtraDeniedHosts(t *testing.T) {
	f := New("cdn.flaky.example.com")

	assert.False(t, f.Safe("https://cdn.flaky.example.com/a.jpg"))
	assert.True(t, f.Safe("https://cdn.example.com/a.jpg"))
}

func TestFilterDenyListIsCaseInsensitive(t *testing.T) {
	f := New()
	assert.False(t, f.Safe("https://LOCALHOST/a.jpg"))
}
