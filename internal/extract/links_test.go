package extract

import (
	"reflect"
	"testing"
)

func TestLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "empty document",
			html: "",
			want: []string{},
		},
		{
			name: "apache style listing",
			html: `<html><body><h1>Index of /a</h1><ul>
<li><a href="/"> Parent Directory</a></li>
<li><a href="b.txt"> b.txt</a></li>
<li><a href="c/"> c/</a></li>
</ul></body></html>`,
			want: []string{"/", "b.txt", "c/"},
		},
		{
			name: "order and duplicates are preserved",
			html: `<a href="z">z</a><a href="a">a</a><a href="z">z</a>`,
			want: []string{"z", "a", "z"},
		},
		{
			name: "anchor without href is dropped",
			html: `<a name="top">top</a>`,
			want: []string{},
		},
		{
			name: "empty href is dropped",
			html: `<a href="">self</a><a href="x">x</a>`,
			want: []string{"x"},
		},
		{
			name: "single quotes are not recognized",
			html: `<a href='x'>x</a>`,
			want: []string{},
		},
		{
			name: "uppercase HREF is not recognized",
			html: `<A HREF="x">x</A>`,
			want: []string{},
		},
		{
			name: "first quoted value after href wins",
			html: `<a href=x title="t">x</a>`,
			want: []string{"t"},
		},
		{
			name: "href inside an earlier attribute is found first",
			html: `<a data-href="d" href="x">x</a>`,
			want: []string{"d"},
		},
		{
			name: "text after the last anchor is scanned too",
			html: `<a href="x">x</a><link href="style.css">`,
			want: []string{"x", "style.css"},
		},
		{
			name: "query strings and absolute urls are kept verbatim",
			html: `<a href="?C=N;O=D">Name</a><a href="http://other/">o</a>`,
			want: []string{"?C=N;O=D", "http://other/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Links(tt.html)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Links() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLinksNeverYieldsEmptyString(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`</a></a></a>`,
		`href`,
		`href"`,
		`href""</a>href"`,
		`<a href="`,
		`"""""</a>`,
	}

	for _, in := range inputs {
		for _, link := range Links(in) {
			if link == "" {
				t.Errorf("Links(%q) yielded an empty string", in)
			}
		}
	}
}

func TestHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{name: "plain anchor", fragment: `<a href="b.txt">b.txt`, want: "b.txt"},
		{name: "no href", fragment: `<a name="x">`, want: ""},
		{name: "no quote after href", fragment: `<a href=x>x`, want: ""},
		{name: "unterminated quote drops last byte", fragment: `<a href="abc`, want: "ab"},
		{name: "unterminated quote at end", fragment: `<a href="`, want: ""},
		{name: "unterminated quote with one byte", fragment: `<a href="a`, want: ""},
		{name: "spaces around equals", fragment: `<a href = "x y">`, want: "x y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Href(tt.fragment); got != tt.want {
				t.Errorf("Href(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}
