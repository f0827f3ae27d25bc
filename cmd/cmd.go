// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/formatter"
	"github.com/desertthunder/freemovies/internal/tasks"
)

func outputFlags(prettyDefault bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: prettyDefault,
		},
	}
}

// setupCommand writes the config file and prepares storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the database",
		Action: r.Setup,
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	emailFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true}
	}
	passwordFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in account",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					emailFlag(),
					passwordFlag(),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "login",
				Usage:  "Sign in with email and password",
				Flags:  []cli.Flag{emailFlag(), passwordFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "google",
				Usage:  "Sign in with Google in the system browser",
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Sign out",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the restored session",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AuthStatus,
			},
		},
	}
}

// moviesCommand handles catalog lookups
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Search and browse the movie catalog",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search movies by title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
				}, outputFlags(false)...),
				Action: r.MoviesSearch,
			},
			{
				Name:      "show",
				Usage:     "Show the full record of a title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(true),
				Action:    r.MoviesShow,
			},
			{
				Name:      "genre",
				Usage:     "Browse a genre (" + strings.Join(tasks.Genres(), ", ") + ")",
				Arguments: []cli.Argument{&cli.StringArg{Name: "genre"}},
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of titles", Value: tasks.DefaultBrowseLimit},
				}, outputFlags(true)...),
				Action: r.MoviesGenre,
			},
			{
				Name:  "series",
				Usage: "List TV series",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of series", Value: 10},
				}, outputFlags(true)...),
				Action: r.MoviesSeries,
			},
		},
	}
}

// listCommand handles the signed-in user's watch list
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Manage your watch list",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print your watch list",
				Flags:  outputFlags(true),
				Action: r.ListShow,
			},
			{
				Name:      "add",
				Usage:     "Add a title by IMDb ID",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a title by IMDb ID",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListRemove,
			},
			{
				Name:  "export",
				Usage: "Export your watch list to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Comma separated formats (" + strings.Join(formatter.Formats, ", ") + ") or all",
						Value:   "all",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: mylist_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent format writers",
						Value: 2,
					},
					&cli.BoolFlag{
						Name:  "posters",
						Usage: "Download posters for the Markdown export",
					},
				},
				Action: r.ListExport,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the OMDb API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET with an OMDb query string, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// serveCommand runs the web front end
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the browser front end",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where TUI logs are written",
				Value: "./tmp/freemovies-tui.log",
			},
		},
		Action: r.TUI,
	}
}
