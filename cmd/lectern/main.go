package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/lectern/internal/app"
)

const usage = `Usage: lectern [flags] [command]

Commands:
  ui                       open the terminal interface (default)
  lessons                  list lessons and progress
  run  [--lesson ID] FILE  run FILE against a lesson ("-" reads stdin)
  test [--lesson ID] FILE  test FILE against the lesson's exercise
  reset                    clear cached progress

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("lectern", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default ~/.config/lectern/config.toml)")
	prefsPath := fs.String("prefs", "", "preferences file (default ~/.config/lectern/prefs.toml)")
	envFile := fs.String("env-file", "", "dotenv file to load (default .env)")
	apiURL := fs.String("api-url", "", "learning platform URL, overrides config")
	lessonID := fs.StringP("lesson", "l", "", "lesson id for run and test (default: current lesson)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "lectern: %v\n", err)
		return 2
	}

	command := "ui"
	rest := fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		EnvFile:    *envFile,
		APIURL:     *apiURL,
	}

	if command == "ui" {
		if err := app.Run(ctx, opts); err != nil {
			fmt.Fprintf(stderr, "lectern: %v\n", err)
			return 1
		}
		return 0
	}

	var action func(context.Context, *app.Session) error
	switch command {
	case "lessons":
		action = func(ctx context.Context, s *app.Session) error {
			return app.ListLessons(ctx, s, stdout)
		}
	case "run", "test":
		if len(rest) != 1 {
			fmt.Fprintf(stderr, "lectern %s: expected exactly one FILE argument\n", command)
			return 2
		}
		file := rest[0]
		do := app.RunFile
		if command == "test" {
			do = app.TestFile
		}
		action = func(ctx context.Context, s *app.Session) error {
			return do(ctx, s, *lessonID, file, stdout)
		}
	case "reset":
		action = func(ctx context.Context, s *app.Session) error {
			return app.Reset(ctx, s, stdout)
		}
	default:
		fmt.Fprintf(stderr, "lectern: unknown command %q\n\n", command)
		fs.Usage()
		return 2
	}

	s, err := app.Open(opts)
	if err != nil {
		fmt.Fprintf(stderr, "lectern: %v\n", err)
		return 1
	}
	defer s.Close()

	if err := action(ctx, s); err != nil {
		fmt.Fprintf(stderr, "lectern: %v\n", err)
		return 1
	}
	return 0
}
