package seerr

import "strconv"

// MediaType for the request API
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTV     MediaType = "tv"
	MediaTypePerson MediaType = "person"
)

// MediaStatus is the service's own availability code for a title.
type MediaStatus int

const (
	MediaStatusUnknown        MediaStatus = 1
	MediaStatusPending        MediaStatus = 2
	MediaStatusProcessing     MediaStatus = 3
	MediaStatusPartiallyAvail MediaStatus = 4
	MediaStatusAvailable      MediaStatus = 5
)

// SearchResponse from GET /api/v1/search
type SearchResponse struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"totalPages"`
	TotalResults int           `json:"totalResults"`
	Results      []MediaResult `json:"results"`
}

// MediaResult is one search hit. ID is the TMDb id.
type MediaResult struct {
	ID           int        `json:"id"`
	MediaType    MediaType  `json:"mediaType"`
	Title        string     `json:"title,omitempty"` // movies
	Name         string     `json:"name,omitempty"`  // tv
	Overview     string     `json:"overview,omitempty"`
	PosterPath   string     `json:"posterPath,omitempty"`
	ReleaseDate  string     `json:"releaseDate,omitempty"`
	FirstAirDate string     `json:"firstAirDate,omitempty"`
	MediaInfo    *MediaInfo `json:"mediaInfo,omitempty"`
}

type MediaInfo struct {
	ID      int          `json:"id"`
	TMDBID  int          `json:"tmdbId"`
	TVDBID  int          `json:"tvdbId,omitempty"`
	Status  MediaStatus  `json:"status"`
	Seasons []SeasonInfo `json:"seasons,omitempty"`
}

type SeasonInfo struct {
	ID           int         `json:"id"`
	SeasonNumber int         `json:"seasonNumber"`
	Status       MediaStatus `json:"status"`
}

// DisplayTitle returns Title for movies and Name for shows.
func (r MediaResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year parses the leading year of the release or first-air date; 0 if unknown.
func (r MediaResult) Year() int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Status is 0 when the service has never seen the title.
func (r MediaResult) Status() MediaStatus {
	if r.MediaInfo == nil {
		return 0
	}
	return r.MediaInfo.Status
}

// TMDbID prefers the id recorded in mediaInfo and falls back to the hit id.
func (r MediaResult) TMDbID() int {
	if r.MediaInfo != nil && r.MediaInfo.TMDBID != 0 {
		return r.MediaInfo.TMDBID
	}
	return r.ID
}

// RequestPayload is the body of POST /api/v1/request
type RequestPayload struct {
	MediaType MediaType `json:"mediaType"`
	MediaID   int       `json:"mediaId"`
	Seasons   []int     `json:"seasons,omitempty"`
}

// RequestResponse after creating a request
type RequestResponse struct {
	ID        int    `json:"id"`
	Status    int    `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// StatusResponse from GET /api/v1/status
type StatusResponse struct {
	Version         string `json:"version"`
	CommitTag       string `json:"commitTag"`
	UpdateAvailable bool   `json:"updateAvailable"`
}
