package spotify

// Response types based on
// https://developer.spotify.com/documentation/web-api/reference/

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Profile represents the current user's profile (GET /v1/me).
type Profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Images      []Image `json:"images"`
}

// Artist represents a Spotify artist. Genres and Images are only
// populated on full artist objects (top-artists responses).
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
	Images     []Image  `json:"images"`
}

// Album represents a Spotify album.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	Popularity int      `json:"popularity"`
	PreviewURL *string  `json:"preview_url"`
}

// topTracksResponse is the paginated response for GET /v1/me/top/tracks.
type topTracksResponse struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
}

// topArtistsResponse is the paginated response for GET /v1/me/top/artists.
type topArtistsResponse struct {
	Items []Artist `json:"items"`
	Total int     `json:"total"`
}
