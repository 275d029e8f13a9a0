package models

import "testing"

func TestResolveImageRef(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", PlaceholderImage},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"data:image/png;base64,iVBOR", "data:image/png;base64,iVBOR"},
		{"/9j/4AAQSkZJRg", "data:image/jpeg;base64,/9j/4AAQSkZJRg"},
	}
	for _, tc := range cases {
		if got := ResolveImageRef(tc.in); got != tc.want {
			t.Errorf("ResolveImageRef(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToDisplayDefaultsImage(t *testing.T) {
	u := User{ID: "u1", Name: "Ada"}
	if got := u.ToDisplay(); got.Image != PlaceholderImage {
		t.Fatalf("expected placeholder, got %q", got.Image)
	}
}

func TestLikedBy(t *testing.T) {
	p := Post{LikeIDs: []string{"a", "b"}}
	if !p.LikedBy("a") || p.LikedBy("c") {
		t.Fatal("unexpected like membership")
	}
}
