package utils

import "strings"

// ImageBaseURL is the catalog's image CDN.
const ImageBaseURL = "https://image.tmdb.org/t/p/"

// PlaceholderImageURL stands in for titles without artwork.
const PlaceholderImageURL = "https://placehold.co/500x750/1f2937/9ca3af?text=No+Image"

// ImageSize is a width bucket offered by the image CDN.
type ImageSize string

const (
	ImageSizeLogo   ImageSize = "w92"
	ImageSizeCard   ImageSize = "w342"
	ImageSizePoster ImageSize = "w500"
)

// ImageURL builds the CDN URL for a poster or logo path. An empty path
// yields the placeholder.
func ImageURL(path string, size ImageSize) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PlaceholderImageURL
	}
	if size == "" {
		size = ImageSizePoster
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return ImageBaseURL + string(size) + path
}

// ImageURLPtr is ImageURL for optional paths.
func ImageURLPtr(path *string, size ImageSize) string {
	if path == nil {
		return PlaceholderImageURL
	}
	return ImageURL(*path, size)
}
