package domains

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full url with www and path", "https://www.Foo.com/x", "foo.com"},
		{"bare domain", "foo.com", "foo.com"},
		{"http scheme", "http://foo.com", "foo.com"},
		{"www without scheme", "www.smilecare.com", "smilecare.com"},
		{"path and query", "https://smilecare.com/services?ref=ad", "smilecare.com"},
		{"subdomain preserved", "https://blog.smilecare.com", "blog.smilecare.com"},
		{"port stripped", "https://smilecare.com:8443/about", "smilecare.com"},
		{"surrounding whitespace", "  https://www.foo.com  ", "foo.com"},
		{"unparseable falls back", "http://exa mple.com/page", "exa mple.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.foo.com/x",
		"foo.com",
		"www.bar.org/path",
		"HTTP://WWW.BAZ.NET",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeJoinsVariants(t *testing.T) {
	// All spellings of the same host must produce one key.
	variants := []string{
		"foo.com",
		"www.foo.com",
		"https://foo.com",
		"https://www.foo.com",
		"https://www.foo.com/contact?utm=1",
	}
	want := "foo.com"
	for _, v := range variants {
		if got := Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}
