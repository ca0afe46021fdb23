package tagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"go.senan.xyz/taglib"

	"leftasrain/internal/leftasrain"
)

// createTestAudioFile generates a minimal MP3 using ffmpeg.
// Skips the test if ffmpeg is not available.
func createTestAudioFile(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping tagger test")
	}

	path := filepath.Join(dir, "test.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "0.1", "-q:a", "9", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

func testTrack() leftasrain.Track {
	return leftasrain.TrackFromSongData(leftasrain.Song{
		ID:        "42",
		Date:      "2010-11-03",
		Artist:    "Grouper",
		TrackName: "Heavy Water - I'd Rather Be Sleeping",
		Comment:   "late night",
		Cover:     "grouper.jpg",
	}, false, leftasrain.DefaultURLs())
}

func TestWriteTags(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	if err := WriteTags(path, testTrack()); err != nil {
		t.Fatalf("WriteTags failed: %v", err)
	}

	tags, err := taglib.ReadTags(path)
	if err != nil {
		t.Fatalf("failed to read tags: %v", err)
	}

	checks := map[string]string{
		taglib.Title:       "Heavy Water - I'd Rather Be Sleeping",
		taglib.Artist:      "Grouper",
		taglib.Album:       "Leftasrain",
		taglib.TrackNumber: "42",
		taglib.Date:        "2010-11-03",
	}

	for key, want := range checks {
		got := ""
		if vals, ok := tags[key]; ok && len(vals) > 0 {
			got = vals[0]
		}
		if got != want {
			t.Errorf("tag %s = %q, want %q", key, got, want)
		}
	}
}

func TestWriteTagsNonexistentFile(t *testing.T) {
	if err := WriteTags("/nonexistent/file.mp3", testTrack()); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestWriteTagsEmptyTrack(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	if err := WriteTags(path, leftasrain.Track{}); err != nil {
		t.Fatalf("WriteTags with empty track failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file missing after empty write: %v", err)
	}
}

func TestWriteArtworkEmpty(t *testing.T) {
	if err := WriteArtwork("/nonexistent", nil); err != nil {
		t.Errorf("expected nil error for empty image, got %v", err)
	}
}

func TestFetchArtwork(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img/covers/grouper.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(image)
	}))
	defer srv.Close()

	track := testTrack()
	track.Album.Images = []string{srv.URL + "/img/covers/grouper.jpg"}

	data, err := FetchArtwork(context.Background(), srv.Client(), track)
	if err != nil {
		t.Fatalf("FetchArtwork() error: %v", err)
	}
	if string(data) != string(image) {
		t.Errorf("FetchArtwork() = %x, want %x", data, image)
	}

	track.Album.Images = []string{srv.URL + "/img/covers/missing.jpg"}
	if _, err := FetchArtwork(context.Background(), srv.Client(), track); err == nil {
		t.Error("expected error for missing cover")
	}

	track.Album.Images = nil
	data, err = FetchArtwork(context.Background(), srv.Client(), track)
	if err != nil || data != nil {
		t.Errorf("FetchArtwork() without images = (%v, %v), want (nil, nil)", data, err)
	}
}
