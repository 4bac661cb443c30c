package server

import "testing"

func TestArtifactName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{url: "http://h/pub/", want: "pub.html"},
		{url: "http://h/pub/docs", want: "docs.html"},
		{url: "http://h/a//b//", want: "b.html"},
		{url: "http://h/My%20Files/", want: "My Files.html"},
		{url: "http://h/x%2Fy/", want: "x_y.html"},
		{url: "http://h:8080/", want: "h.html"},
		{url: "http://h", want: "h.html"},
		{url: "http://h/../", want: "h.html"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			got, err := ArtifactName(tt.url, ".html")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ArtifactName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestArtifactNameInvalid(t *testing.T) {
	t.Parallel()

	if _, err := ArtifactName("http://h/%zz\x7f", ".html"); err == nil {
		t.Error("expected error for unparsable URL")
	}
}
