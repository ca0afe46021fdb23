package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"leftasrain/internal/config"
	"leftasrain/internal/leftasrain"
	"leftasrain/internal/logger"
	"leftasrain/internal/progress"
	"leftasrain/internal/shutdown"
	"leftasrain/internal/tagger"
)

func main() {
	opts, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	cfg := opts.cfg

	sh := shutdown.New()
	sh.Listen()
	defer sh.Stop()

	log := logger.New(cfg.Verbose)
	defer log.Close()
	sh.AddCleanup(func() {
		log.Warn("Interrupted, stopping after the current request...")
	})

	level := cfg.Log.Level
	if cfg.Verbose {
		level = "debug"
	}
	if err := log.Configure(level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] %v\n", err)
	}

	if !cfg.Verbose {
		logFile := cfg.Log.File
		if logFile == "" {
			logFile = filepath.Join(config.GetDefaultLogPath(), fmt.Sprintf("leftasrain_%s.log", time.Now().Format("2006-01-02_15-04-05")))
		}
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else if err := log.SetFileLog(logFile); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		} else {
			log.Debug("Logging to file: %s", logFile)
		}
	}

	if cfg.Verbose && opts.configPath != "" {
		log.Debug("Loaded configuration from: %s", opts.configPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	client := leftasrain.New(cfg.ClientConfig(), log)
	if err := client.LoadDB(); err != nil {
		log.Warn("Ignoring song cache: %v", err)
	}

	if err := run(sh, opts, client, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(sh *shutdown.Handler, opts options, client *leftasrain.Client, log *logger.Logger) error {
	ctx := sh.Context()
	cfg := opts.cfg

	switch opts.command {
	case "total":
		total := client.Total(ctx)
		if total == 0 {
			return leftasrain.ErrTotalUnavailable
		}
		fmt.Println(total)
		return nil

	case "lookup":
		track, err := client.Lookup(ctx, opts.args[0])
		if err != nil {
			return err
		}
		return saveAndPrint(client, track)

	case "track":
		track, err := client.TrackFromID(ctx, opts.args[0], cfg.RemoteURLs)
		if err != nil {
			return err
		}
		return saveAndPrint(client, track)

	case "list":
		var keep func(leftasrain.Song) bool
		if len(opts.args) == 1 {
			query := strings.ToLower(opts.args[0])
			keep = func(s leftasrain.Song) bool {
				return strings.Contains(strings.ToLower(s.Artist), query) ||
					strings.Contains(strings.ToLower(s.TrackName), query)
			}
		}
		tracks := slices.Collect(client.TracksFromFilter(keep, cfg.RemoteURLs))
		slices.SortFunc(tracks, func(a, b leftasrain.Track) int {
			return cmp.Compare(a.TrackNo, b.TrackNo)
		})
		for _, t := range tracks {
			fmt.Printf("%5d  %s - %s  %s\n", t.TrackNo, t.Artists[0].Name, t.Name, t.URI)
		}
		log.Debug("%d of %d cached songs matched", len(tracks), client.Len())
		return nil

	case "sync":
		return runSync(sh, cfg, client, log)

	case "tag":
		return runTag(sh, cfg, client, log, opts.args[0], opts.args[1])
	}

	return fmt.Errorf("unknown command: %s", opts.command)
}

func runSync(sh *shutdown.Handler, cfg config.Config, client *leftasrain.Client, log *logger.Logger) error {
	var bar *progress.Bar
	stats, err := client.Sync(sh.Context(), leftasrain.SyncOptions{
		SaveEvery: cfg.SaveEvery,
		OnProgress: func(done, total int) {
			if cfg.Verbose {
				return
			}
			if bar == nil {
				bar = progress.New(total)
				log.SetProgressBar(true)
			}
			bar.Increment()
		},
	})

	if bar != nil {
		bar.Finish()
		log.SetProgressBar(false)
	}

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	log.Info("=== Sync completed: %d songs, %d fetched, %d already cached, %d failed ===",
		stats.Total, stats.Fetched, stats.Cached, stats.Failed)
	return nil
}

func runTag(sh *shutdown.Handler, cfg config.Config, client *leftasrain.Client, log *logger.Logger, path, id string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot tag %s: %w", path, err)
	}

	track, err := client.TrackFromID(sh.Context(), id, true)
	if err != nil {
		return err
	}
	if err := client.SaveDB(); err != nil {
		log.Warn("Failed to save song cache: %v", err)
	}

	if err := tagger.WriteTags(path, track); err != nil {
		return err
	}
	log.Info("Tagged %s as %s - %s", path, track.Artists[0].Name, track.Name)

	artwork, err := tagger.FetchArtwork(sh.Context(), &http.Client{Timeout: cfg.Timeout}, track)
	if err != nil {
		log.Warn("No artwork for %s: %v", path, err)
		return nil
	}
	if err := tagger.WriteArtwork(path, artwork); err != nil {
		log.Warn("%v", err)
	}
	return nil
}

// saveAndPrint persists songs fetched by the command and prints the track as JSON.
func saveAndPrint(client *leftasrain.Client, track leftasrain.Track) error {
	if err := client.SaveDB(); err != nil {
		return err
	}
	out, err := json.MarshalIndent(track, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
