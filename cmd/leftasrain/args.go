package main

import (
	"fmt"
	"os"
	"time"

	"leftasrain/internal/config"
)

// options holds the parsed command line.
type options struct {
	cfg        config.Config
	configPath string
	command    string
	args       []string
}

// commandArgs lists the commands and how many positional arguments each
// takes at least and at most.
var commandArgs = map[string][2]int{
	"total":  {0, 0},
	"lookup": {1, 1},
	"track":  {1, 1},
	"list":   {0, 1},
	"sync":   {0, 0},
	"tag":    {2, 2},
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > environment > config file > defaults
func parseArgs() (options, error) {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--init-config" {
			return options{}, initConfigFile()
		}
	}

	var opts options

	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--config requires a path argument")
			}
			opts.configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(opts.configPath)
	if err != nil {
		return options{}, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.configPath == "" {
		opts.configPath = config.FindConfigFile()
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--remote", "-r":
			cfg.RemoteURLs = true

		case "--timeout", "-t":
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--timeout requires a duration argument")
			}
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return options{}, fmt.Errorf("invalid timeout value: %s", args[i])
			}
			cfg.Timeout = d

		case "--db":
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--db requires a path argument")
			}
			i++
			cfg.DBFile = config.ExpandHome(args[i])

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return options{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if opts.command == "" {
				opts.command = arg
			} else {
				opts.args = append(opts.args, arg)
			}
		}
	}

	if opts.command == "" {
		return options{}, fmt.Errorf("no command given, see --help")
	}
	bounds, ok := commandArgs[opts.command]
	if !ok {
		return options{}, fmt.Errorf("unknown command: %s", opts.command)
	}
	if n := len(opts.args); n < bounds[0] || n > bounds[1] {
		return options{}, fmt.Errorf("wrong number of arguments for %s, see --help", opts.command)
	}

	opts.cfg = cfg
	return opts, nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  timeout: request timeout, e.g. 10s")
	fmt.Println("  db_file: path of the local song cache")
	fmt.Println("  remote_urls: true/false (resolve tracks to leftasrain.com URLs)")
	fmt.Println("  save_every: save the cache after this many fetched songs during sync")
	fmt.Println("  log.level: debug, info, warn, error")

	os.Exit(0)
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("leftasrain - Browse and cache the leftasrain.com catalog")
	fmt.Println()
	fmt.Println("Usage: leftasrain [options] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  total                      Print the number of songs in the catalog")
	fmt.Println("  lookup <uri>               Resolve a leftasrain:track: URI")
	fmt.Println("  track <id>                 Show the track with the given song ID")
	fmt.Println("  list [text]                List cached tracks, optionally filtered by artist or title")
	fmt.Println("  sync                       Fetch every song missing from the local cache")
	fmt.Println("  tag <file> <id>            Write the metadata of a song into an audio file")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -r, --remote               Use leftasrain.com URLs instead of leftasrain: URIs")
	fmt.Println("  -t, --timeout <duration>   Request timeout (default: 10s)")
	fmt.Println("      --db <path>            Path of the song cache file")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./leftasrain.yaml")
	fmt.Println("  ~/.config/leftasrain/config.yaml")
	fmt.Println("  ~/.leftasrain.yaml")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  LEFTASRAIN_TIMEOUT, LEFTASRAIN_DB_FILE, LEFTASRAIN_REMOTE_URLS,")
	fmt.Println("  LEFTASRAIN_LISTEN_ADDR, LEFTASRAIN_LOG_LEVEL (also read from ./.env)")
	fmt.Println()
	fmt.Println("Logging:")
	fmt.Println("  Normal mode: Progress bar shown during sync, detailed logs saved to:")
	fmt.Println("    ~/.local/share/leftasrain/logs/")
	fmt.Println("  Verbose mode: All output to stdout, no progress bar")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Download the whole catalog metadata")
	fmt.Println("  leftasrain sync")
	fmt.Println()
	fmt.Println("  # Find cached songs by an artist")
	fmt.Println("  leftasrain list \"boards of canada\"")
	fmt.Println()
	fmt.Println("  # Resolve a URI to a streamable URL")
	fmt.Println("  leftasrain lookup \"leftasrain:track:Artist - Title.42\"")
	fmt.Println()
	fmt.Println("  # Tag a downloaded file")
	fmt.Println("  leftasrain tag ~/Music/song.mp3 42")
}
