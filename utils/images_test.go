package utils

import "testing"

func TestImageURL(t *testing.T) {
	poster := "/abc.jpg"
	tests := []struct {
		name string
		path string
		size ImageSize
		want string
	}{
		{"poster", "/abc.jpg", ImageSizePoster, "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"logo", "/logo.png", ImageSizeLogo, "https://image.tmdb.org/t/p/w92/logo.png"},
		{"card", "/card.jpg", ImageSizeCard, "https://image.tmdb.org/t/p/w342/card.jpg"},
		{"missing slash", "abc.jpg", ImageSizePoster, "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"default size", "/abc.jpg", "", "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"empty", "", ImageSizePoster, PlaceholderImageURL},
		{"blank", "   ", ImageSizeLogo, PlaceholderImageURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImageURL(tt.path, tt.size); got != tt.want {
				t.Errorf("ImageURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.want)
			}
		})
	}

	if got := ImageURLPtr(nil, ImageSizeCard); got != PlaceholderImageURL {
		t.Errorf("ImageURLPtr(nil) = %q", got)
	}
	if got := ImageURLPtr(&poster, ImageSizeCard); got != "https://image.tmdb.org/t/p/w342/abc.jpg" {
		t.Errorf("ImageURLPtr = %q", got)
	}
}
