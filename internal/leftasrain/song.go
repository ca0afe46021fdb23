// Package leftasrain fetches song metadata from the leftasrain.com next-track
// endpoint, keeps it in a JSON file backed cache and turns it into tracks a
// media player can list and play.
package leftasrain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Song is one normalized catalog entry as stored in the cache file.
type Song struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Artist       string `json:"artist"`
	TrackName    string `json:"track_name"`
	Album        string `json:"album"`
	URL          string `json:"url"`
	Comment      string `json:"comment"`
	Cover        string `json:"cover"`
	Post         string `json:"post"`
	LastModified int64  `json:"last_modified"`
}

// titleSeparator splits "artist - title" strings.
const titleSeparator = " - "

// fieldMapping lists the positions of the remote payload that are kept.
// Positions 6 and 7 carry nothing we store.
var fieldMapping = [...]struct {
	index int
	set   func(*Song, string)
}{
	{0, func(s *Song, v string) { s.ID = v }},
	{1, func(s *Song, v string) { s.Date = v }},
	{2, func(s *Song, v string) { s.Artist, s.TrackName = SplitTitle(v) }},
	{3, func(s *Song, v string) { s.Album = v }},
	{4, func(s *Song, v string) { s.URL = v }},
	{5, func(s *Song, v string) { s.Comment = v }},
	{8, func(s *Song, v string) { s.Cover = v }},
	{9, func(s *Song, v string) { s.Post = v }},
}

// SplitTitle splits "artist - title" into its parts. Everything after the
// first separator belongs to the title. Without a separator the whole string
// is the title.
func SplitTitle(t string) (artist, title string) {
	parts := strings.Split(t, titleSeparator)
	if len(parts) < 2 {
		return "", t
	}
	return parts[0], strings.Join(parts[1:], titleSeparator)
}

// MapSongData maps the positional attributes returned by the next-track
// endpoint to a Song and stamps it with the current time.
func MapSongData(raw []json.RawMessage) Song {
	var s Song
	for _, f := range fieldMapping {
		if f.index < len(raw) {
			f.set(&s, rawString(raw[f.index]))
		}
	}
	s.LastModified = time.Now().Unix()
	return s
}

// DecodeSongData reads a next-track response body and maps it.
func DecodeSongData(r io.Reader) (Song, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Song{}, fmt.Errorf("failed to decode song data: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Song{}, errors.New("failed to decode song data: trailing data after array")
	}
	if len(raw) == 0 {
		return Song{}, errors.New("empty song data")
	}
	return MapSongData(raw), nil
}

// rawString returns JSON strings unquoted and any other value as its literal text.
func rawString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(v))
	if text == "null" {
		return ""
	}
	return text
}
