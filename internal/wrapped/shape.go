package wrapped

import (
	"sort"

	"github.com/cosmictunes/cosmic-wrapped/internal/spotify"
)

// shapeTracks converts Spotify top tracks into the persisted record form.
func shapeTracks(tracks []spotify.Track) []TrackRecord {
	records := make([]TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		record := TrackRecord{
			Name:       t.Name,
			ID:         t.ID,
			Album:      t.Album.Name,
			AlbumID:    t.Album.ID,
			Popularity: t.Popularity,
			PreviewURL: t.PreviewURL,
		}
		if len(t.Artists) > 0 {
			record.Artist = t.Artists[0].Name
			record.ArtistID = t.Artists[0].ID
		}
		if len(t.Album.Images) > 0 {
			record.ImageURL = t.Album.Images[0].URL
		}
		records = append(records, record)
	}
	return records
}

// shapeArtists converts Spotify top artists into the persisted record form.
func shapeArtists(artists []spotify.Artist) []ArtistRecord {
	records := make([]ArtistRecord, 0, len(artists))
	for _, a := range artists {
		record := ArtistRecord{
			Name:       a.Name,
			ID:         a.ID,
			Popularity: a.Popularity,
		}
		if len(a.Images) > 0 {
			record.ImageURL = a.Images[0].URL
		}
		records = append(records, record)
	}
	return records
}

// rankGenres counts genre occurrences across the artist sample and
// returns the counts plus genre names ordered most frequent first,
// ties broken alphabetically.
func rankGenres(artists []spotify.Artist) (map[string]int, []string) {
	counts := make(map[string]int)
	for _, a := range artists {
		for _, g := range a.Genres {
			counts[g]++
		}
	}

	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})

	return counts, genres
}
