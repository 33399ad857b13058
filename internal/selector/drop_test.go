package selector

import "testing"

func TestParseDropped(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/tmp/report.pdf", "/tmp/report.pdf"},
		{"  /tmp/report.pdf\n", "/tmp/report.pdf"},
		{`/tmp/my\ report.pdf`, "/tmp/my report.pdf"},
		{`'/tmp/my report.pdf'`, "/tmp/my report.pdf"},
		{`"/tmp/my report.pdf"`, "/tmp/my report.pdf"},
		{`'/tmp/a b.pdf' '/tmp/c.pdf'`, "/tmp/a b.pdf"},
		{"/tmp/a.pdf /tmp/b.pdf", "/tmp/a.pdf"},
		{"file:///tmp/my%20report.pdf", "/tmp/my report.pdf"},
		{`"/tmp/it's here.pdf"`, "/tmp/it's here.pdf"},
		{"/tmp/issue#4.pdf", "/tmp/issue#4.pdf"},
		{`'/tmp/unterminated.pdf`, `'/tmp/unterminated.pdf`},
		{"", ""},
	}
	for _, c := range cases {
		got := ParseDropped(c.in)
		if got != c.want {
			t.Fatalf("ParseDropped(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}
