// Package tagger writes leftasrain track metadata into local audio files.
package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.senan.xyz/taglib"

	"leftasrain/internal/leftasrain"
)

// maxArtworkSize bounds cover downloads.
const maxArtworkSize = 10 << 20

// WriteTags writes the metadata of a track to an audio file.
func WriteTags(path string, track leftasrain.Track) error {
	tags := make(map[string][]string)

	if track.Name != "" {
		tags[taglib.Title] = []string{track.Name}
	}
	if len(track.Artists) > 0 && track.Artists[0].Name != "" {
		tags[taglib.Artist] = []string{track.Artists[0].Name}
	}
	if track.Album.Name != "" {
		tags[taglib.Album] = []string{track.Album.Name}
	}
	if track.TrackNo > 0 {
		tags[taglib.TrackNumber] = []string{strconv.Itoa(track.TrackNo)}
	}
	if track.Date != "" {
		tags[taglib.Date] = []string{track.Date}
	}
	if track.Comment != "" {
		tags[taglib.Comment] = []string{track.Comment}
	}

	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return nil
}

// WriteArtwork embeds artwork image data into an audio file.
func WriteArtwork(path string, imageData []byte) error {
	if len(imageData) == 0 {
		return nil
	}
	if err := taglib.WriteImage(path, imageData); err != nil {
		return fmt.Errorf("failed to write artwork to %s: %w", path, err)
	}
	return nil
}

// FetchArtwork downloads the first album image of a track. It returns nil
// data when the track has no image.
func FetchArtwork(ctx context.Context, client *http.Client, track leftasrain.Track) ([]byte, error) {
	if len(track.Album.Images) == 0 || track.Album.Images[0] == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.Album.Images[0], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("artwork request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork request returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork: %w", err)
	}
	return data, nil
}
