package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/enod/pkg/config"
	"github.com/dd0wney/enod/pkg/logging"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// env is what every command gets: resolved configuration, a logger and the
// output stream.
type env struct {
	cfg    config.Config
	logger logging.Logger
	out    io.Writer
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"create":      cmdCreate,
	"info":        cmdInfo,
	"insert":      cmdInsert,
	"get":         cmdGet,
	"range":       cmdRange,
	"trim":        cmdTrim,
	"trim-before": cmdTrimBefore,
	"compact":     cmdCompact,
	"verify":      cmdVerify,
	"backup":      cmdBackup,
	"restore":     cmdRestore,
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("enodctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Configuration file (default: $"+config.EnvPath+")")
	dataFile := fs.String("file", "", "Data file, overriding data_file from the configuration")
	logLevel := fs.String("log-level", "", "Log level, overriding log_level from the configuration")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return errors.New("no command given")
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	switch name {
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "enodctl v%s\n", version)
		return nil
	}

	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command: %s", name)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e := &env{
		cfg:    cfg,
		logger: cfg.Logger(stderr).With(logging.Component("enodctl"), logging.Operation(name)),
		out:    stdout,
	}
	return cmd(e, rest)
}

func printUsage(w io.Writer) {
	usage := `enodctl - inspect and maintain enod time-series data files

Usage:
  enodctl [-config file] [-file data.enod] [-log-level level] <command> [args]

Available Commands:
  create                      Create an empty data file (overwrites)
  info                        Show record count, bounds and file size
  insert <ts> <value> ...     Append one or more samples
  get <ts>                    Print the first sample at a timestamp
  range <start> <end>         Print samples with start <= ts <= end
  trim <n>                    Hide the n oldest samples
  trim-before <ts>            Hide every sample older than ts
  compact                     Reclaim space held by trimmed samples
  verify                      Check ordering and header bounds
  backup -out file | -s3 key  Write a compressed snapshot (-to-s3 picks a key)
  restore -in file | -s3 key  Rebuild the data file from a snapshot
  help                        Show this help message
  version                     Show version information
`
	fmt.Fprint(w, usage)
}
