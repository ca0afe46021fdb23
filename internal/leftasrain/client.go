package leftasrain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"leftasrain/internal/logger"
	"leftasrain/internal/metrics"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrInvalidURI is wrapped by every error returned from ValidateLookupURI.
	ErrInvalidURI = errors.New("invalid leftasrain URI")
	// ErrSongNotFound is returned when a song is neither cached nor fetchable.
	ErrSongNotFound = errors.New("leftasrain song not found")
)

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	DBFile  string
	URLs    URLs
}

// Client fetches songs one at a time and caches them in memory and on disk.
// A Client is not safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	urls        URLs
	dbFile      string
	db          map[string]Song
	total       int
	totalLoaded bool
	logger      *logger.Logger
}

// New creates a Client with an empty cache. Call LoadDB to read the cache file.
func New(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		urls:       cfg.URLs.withDefaults(),
		dbFile:     cfg.DBFile,
		db:         make(map[string]Song),
		logger:     log,
	}
}

// DBFile returns the path of the cache file.
func (c *Client) DBFile() string { return c.dbFile }

// URLs returns the endpoints the client talks to.
func (c *Client) URLs() URLs { return c.urls }

// IDs returns a snapshot of the cached song IDs.
func (c *Client) IDs() []string {
	ids := make([]string, 0, len(c.db))
	for id := range c.db {
		ids = append(ids, id)
	}
	return ids
}

// Songs returns a snapshot of the cached songs.
func (c *Client) Songs() []Song {
	songs := make([]Song, 0, len(c.db))
	for _, s := range c.db {
		songs = append(songs, s)
	}
	return songs
}

// Len returns the number of cached songs.
func (c *Client) Len() int { return len(c.db) }

// Total returns the number of songs on leftasrain.com. The value is fetched
// once; a failed fetch is remembered as 0 unless ctx was cancelled.
func (c *Client) Total(ctx context.Context) int {
	if c.totalLoaded {
		return c.total
	}
	c.totalLoaded = true

	// The endpoint returns the entry after currTrackEntry, so -1 yields the
	// newest song, whose ID is the highest one.
	s, ok := c.fetchSong(ctx, -1, false)
	if !ok && ctx.Err() != nil {
		// A caller abort is not a catalog failure; fetch again next time.
		c.totalLoaded = false
		c.logger.Debug("leftasrain: catalog size fetch aborted: %v", ctx.Err())
		return 0
	}
	if !ok {
		c.logger.Error("leftasrain: failed to fetch catalog size")
		return c.total
	}
	n, err := strconv.Atoi(s.ID)
	if err != nil {
		c.logger.Error("leftasrain: invalid song ID %q in catalog size response: %v", s.ID, err)
		return c.total
	}
	c.total = n + 1
	return c.total
}

// SaveDB writes the whole cache to the cache file, replacing it.
func (c *Client) SaveDB() error {
	data, err := json.MarshalIndent(c.db, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal song cache: %w", err)
	}
	if dir := filepath.Dir(c.dbFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(c.dbFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write song cache: %w", err)
	}
	c.logger.Debug("leftasrain: saved %d songs to %s", len(c.db), c.dbFile)
	return nil
}

// LoadDB replaces the in-memory cache with the cache file contents. A missing
// file leaves the cache as it is.
func (c *Client) LoadDB() error {
	data, err := os.ReadFile(c.dbFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read song cache %s: %w", c.dbFile, err)
	}

	var db map[string]Song
	if err := json.Unmarshal(data, &db); err != nil {
		return fmt.Errorf("failed to parse song cache %s: %w", c.dbFile, err)
	}
	if db == nil {
		db = make(map[string]Song)
	}
	c.db = db
	metrics.CachedSongs.Set(float64(len(c.db)))
	c.logger.Debug("leftasrain: loaded %d songs from %s", len(c.db), c.dbFile)
	return nil
}

// FetchSong returns the song with the given decimal ID, from the cache when
// possible. ok is false when the song could not be fetched or id is not a
// song ID.
func (c *Client) FetchSong(ctx context.Context, id string) (Song, bool) {
	if !IsSongID(id) {
		c.logger.Debug("leftasrain: invalid song ID %q", id)
		return Song{}, false
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		c.logger.Debug("leftasrain: invalid song ID %q", id)
		return Song{}, false
	}
	return c.fetchSong(ctx, n, true)
}

func (c *Client) fetchSong(ctx context.Context, id int, useCache bool) (Song, bool) {
	key := strconv.Itoa(id)
	if useCache {
		if s, ok := c.db[key]; ok {
			c.logger.Debug("leftasrain: db hit for ID: %d", id)
			metrics.CacheHits.Inc()
			return s, true
		}
		metrics.CacheMisses.Inc()
	}

	s, err := c.requestSong(ctx, id)
	if err != nil {
		c.logger.Debug("Fetch failed: %v", err)
		return Song{}, false
	}

	if useCache {
		c.db[key] = s
		metrics.CachedSongs.Set(float64(len(c.db)))
	}
	return s, true
}

func (c *Client) requestSong(ctx context.Context, id int) (Song, error) {
	params := url.Values{}
	params.Set("currTrackEntry", strconv.Itoa(id+1))
	params.Set("shuffle", "false")

	reqURL := fmt.Sprintf("%s?%s", c.urls.NextTrackURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(metrics.ReasonTransport).Inc()
		return Song{}, fmt.Errorf("failed to create leftasrain request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(metrics.ReasonTransport).Inc()
		return Song{}, fmt.Errorf("leftasrain request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FetchFailures.WithLabelValues(metrics.ReasonStatus).Inc()
		return Song{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	s, err := DecodeSongData(resp.Body)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(metrics.ReasonDecode).Inc()
		return Song{}, err
	}
	return s, nil
}

// ValidateLookupURI checks that uri ends in ".<id>" with an ID inside the catalog.
func (c *Client) ValidateLookupURI(ctx context.Context, uri string) error {
	id, ok := IDFromURI(uri)
	if !ok {
		return invalidURI("wrong leftasrain URI format")
	}
	if err := c.validateID(ctx, id); err != nil {
		return invalidURI("error while validating URI: %v", err)
	}
	return nil
}

func (c *Client) validateID(ctx context.Context, id string) error {
	if !isDigits(id) {
		return errors.New("leftasrain song ID must be a positive int")
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return err
	}
	if n >= c.Total(ctx) {
		return fmt.Errorf("no such leftasrain song with ID: %s", id)
	}
	return nil
}

// TrackFromID returns the track for a song ID, fetching the song if it is not cached.
func (c *Client) TrackFromID(ctx context.Context, id string, remoteURL bool) (Track, error) {
	s, ok := c.FetchSong(ctx, id)
	if !ok {
		return Track{}, fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	return TrackFromSongData(s, remoteURL, c.urls), nil
}

// Lookup resolves a leftasrain:track: URI to a track pointing at the remote mp3.
func (c *Client) Lookup(ctx context.Context, uri string) (Track, error) {
	if err := c.ValidateLookupURI(ctx, uri); err != nil {
		return Track{}, err
	}
	id, _ := IDFromURI(uri)
	return c.TrackFromID(ctx, id, true)
}

// TracksFromFilter yields a track for every cached song accepted by keep.
// A nil keep accepts every song. Order is unspecified.
func (c *Client) TracksFromFilter(keep func(Song) bool, remoteURL bool) iter.Seq[Track] {
	return func(yield func(Track) bool) {
		for _, s := range c.db {
			if keep != nil && !keep(s) {
				continue
			}
			if !yield(TrackFromSongData(s, remoteURL, c.urls)) {
				return
			}
		}
	}
}

type uriError struct {
	msg string
}

func invalidURI(format string, args ...interface{}) error {
	return &uriError{msg: fmt.Sprintf(format, args...)}
}

func (e *uriError) Error() string { return e.msg }

func (e *uriError) Unwrap() error { return ErrInvalidURI }

// IsSongID reports whether id is a non-negative decimal song ID.
func IsSongID(id string) bool {
	return isDigits(id)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
