package leftasrain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Remote endpoints of leftasrain.com.
const (
	DefaultNextTrackURL = "http://leftasrain.com/getNextTrack.php"
	DefaultSongURL      = "http://leftasrain.com/musica/"
	DefaultCoverURL     = "http://www.leftasrain.com/img/covers/%s"
)

// AlbumName is the album every leftasrain track belongs to.
const AlbumName = "Leftasrain"

const trackURIPrefix = "leftasrain:track:"

// URLs holds the remote endpoints. CoverURL is a template where %s is
// replaced by the song's cover identifier.
type URLs struct {
	NextTrackURL string
	SongURL      string
	CoverURL     string
}

// DefaultURLs returns the leftasrain.com endpoints.
func DefaultURLs() URLs {
	return URLs{
		NextTrackURL: DefaultNextTrackURL,
		SongURL:      DefaultSongURL,
		CoverURL:     DefaultCoverURL,
	}
}

func (u URLs) withDefaults() URLs {
	def := DefaultURLs()
	if u.NextTrackURL == "" {
		u.NextTrackURL = def.NextTrackURL
	}
	if u.SongURL == "" {
		u.SongURL = def.SongURL
	}
	if u.CoverURL == "" {
		u.CoverURL = def.CoverURL
	}
	return u
}

// Artist is a track artist as seen by the player.
type Artist struct {
	Name string `json:"name"`
}

// Album is a track album as seen by the player.
type Album struct {
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

// Track is the player-facing view of a Song. It is built on demand and never stored.
type Track struct {
	URI          string   `json:"uri"`
	Name         string   `json:"name"`
	Artists      []Artist `json:"artists"`
	Album        Album    `json:"album"`
	Comment      string   `json:"comment"`
	Date         string   `json:"date"`
	TrackNo      int      `json:"track_no"`
	LastModified int64    `json:"last_modified"`
}

// TrackFromSongData converts a Song to a Track. With remoteURL the track URI
// points at the mp3 on the server, otherwise it is a leftasrain:track: URI.
func TrackFromSongData(s Song, remoteURL bool, urls URLs) Track {
	urls = urls.withDefaults()

	uri := TrackURI(s)
	if remoteURL {
		uri = resolveSongURL(urls.SongURL, s.URL+".mp3")
	}

	trackNo, _ := strconv.Atoi(s.ID)

	return Track{
		URI:     uri,
		Name:    s.TrackName,
		Artists: []Artist{{Name: s.Artist}},
		Album: Album{
			Name:   AlbumName,
			Images: []string{strings.Replace(urls.CoverURL, "%s", s.Cover, 1)},
		},
		Comment:      s.Comment,
		Date:         s.Date,
		TrackNo:      trackNo,
		LastModified: s.LastModified,
	}
}

// TrackURI builds the local URI of a song. Dots and separators in the artist
// or title are not escaped; the ID is always taken after the last dot.
func TrackURI(s Song) string {
	return fmt.Sprintf("%s%s%s%s.%s", trackURIPrefix, s.Artist, titleSeparator, s.TrackName, s.ID)
}

// IDFromURI returns the text after the last dot of uri.
func IDFromURI(uri string) (string, bool) {
	i := strings.LastIndex(uri, ".")
	if i < 0 {
		return "", false
	}
	return uri[i+1:], true
}

func resolveSongURL(base, name string) string {
	b, err := url.Parse(base)
	if err != nil {
		return base + name
	}
	ref, err := url.Parse(name)
	if err != nil {
		return base + name
	}
	return b.ResolveReference(ref).String()
}
