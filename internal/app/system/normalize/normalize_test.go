package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTags(t *testing.T) {
	got := Tags([]string{" go  lang ", "", "Go Lang", "video", "   "})
	want := []string{"go lang", "video"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %q, want %q", got, want)
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags("travel, food ,,vlog")
	want := []string{"travel", "food", "vlog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitTags = %q, want %q", got, want)
	}
}

func TestHashtag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"travel", "#travel"},
		{"street food", "#streetfood"},
		{" a\tb c ", "#abc"},
		{"#already", "#already"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Hashtag(tt.input); got != tt.want {
			t.Errorf("Hashtag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
