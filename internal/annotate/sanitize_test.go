package annotate

import "testing"

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Champion", want: "Champion"},
		{name: "tags", in: "<b>Lead</b> <em>Generation</em> Page", want: "Lead Generation Page"},
		{name: "whitespace", in: "  Sales \t\r\n Page  ", want: "Sales Page"},
		{name: "entities survive", in: "Q&A", want: "Q&A"},
		{name: "quotes survive", in: `It's "quoted"`, want: `It's "quoted"`},
		{name: "percent octets", in: "Video%0A", want: "Video"},
		{name: "invalid utf8", in: "bad\xffbyte", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "encoded tags", in: "a &lt;img src=x onerror=alert(1)&gt; b", want: "a b"},
		{name: "encoded script", in: "&lt;script&gt;alert(1)&lt;/script&gt;", want: ""},
		{name: "double encoded tags", in: "x &amp;lt;b&amp;gt;y&amp;lt;/b&amp;gt;", want: "x y"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeText(tc.in); got != tc.want {
				t.Fatalf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
