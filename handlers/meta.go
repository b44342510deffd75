package handlers

import (
	"net/http"

	"marquee/models"
	"marquee/utils"
)

type streamingServiceResponse struct {
	models.StreamingService
	LogoURL string `json:"logoUrl"`
}

// GetStreamingServices lists the providers offered in the subscription picker.
func GetStreamingServices(w http.ResponseWriter, r *http.Request) {
	services := models.StreamingServices()
	out := make([]streamingServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, streamingServiceResponse{
			StreamingService: s,
			LogoURL:          utils.ImageURL(s.Logo, utils.ImageSizeLogo),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetThemes lists the themes with their header copy.
func GetThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ThemeHeaders())
}
