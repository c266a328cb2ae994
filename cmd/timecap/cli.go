package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/ops"
	"github.com/avelis/timecap/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "timecap",
		Usage:   "A timeline of capsules, one per year",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(db),
			addCmd(db),
			listCmd(db),
			showCmd(db),
			saveCmd(db),
			deleteCmd(db),
			renameCmd(db),
			shareCmd(db, cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			themeCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createCmd creates the create command.
func createCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new empty timeline",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("name is required"))
			}

			output, err := ops.Create(db, ops.CreateInput{Name: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// addCmd creates the add command.
func addCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a capsule to a timeline",
		ArgsUsage: "<timeline-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "year", Aliases: []string{"y"}, Required: true, Usage: "Capsule year"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Capsule title"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Capsule description (markdown)"},
			&cli.StringFlag{Name: "media", Usage: "Media URL (image, video, or link)"},
			&cli.StringFlag{Name: "mood", Aliases: []string{"m"}, Usage: "Mood label"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.BoolFlag{Name: "milestone", Usage: "Mark as a milestone"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("timeline id is required"))
			}

			output, err := ops.AddCapsule(db, ops.AddCapsuleInput{
				TimelineID:  c.Args().First(),
				Year:        c.Int("year"),
				Title:       c.String("title"),
				Description: c.String("description"),
				MediaURL:    c.String("media"),
				Mood:        c.String("mood"),
				Milestone:   c.Bool("milestone"),
				Tags:        parseTags(c.String("tags")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored timelines",
		Action: func(c *cli.Context) error {
			output, err := ops.List(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a timeline and its capsules",
		ArgsUsage: "<timeline-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("timeline id is required"))
			}

			output, err := ops.Load(db, ops.LoadInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// saveCmd creates the save command. The capsule list is read from stdin as
// a JSON array and replaces the timeline's contents wholesale.
func saveCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Replace a timeline's capsules (reads a JSON array from stdin)",
		ArgsUsage: "<timeline-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("timeline id is required"))
			}
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("capsules must be piped via stdin"))
			}

			data, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			var capsules []capsule.Capsule
			if err := json.Unmarshal([]byte(data), &capsules); err != nil {
				return outputError(errors.NewInvalidPayload("capsules must be a JSON array"))
			}

			output, err := ops.Save(db, ops.SaveInput{
				ID:       c.Args().First(),
				Capsules: capsules,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a timeline",
		ArgsUsage: "<timeline-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("timeline id is required"))
			}

			output, err := ops.Delete(db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// renameCmd creates the rename command.
func renameCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a timeline",
		ArgsUsage: "<timeline-id> <new-name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("timeline id and new name are required"))
			}

			output, err := ops.Rename(db, ops.RenameInput{
				ID:   c.Args().Get(0),
				Name: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// shareCmd creates the share command.
func shareCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "share",
		Usage:     "Build a shareable URL for a timeline",
		ArgsUsage: "<timeline-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Author name shown to viewers"},
			&cli.StringFlag{Name: "bio", Usage: "Author bio shown to viewers"},
			&cli.StringFlag{Name: "profile-pic", Usage: "Author profile picture URL"},
			&cli.StringFlag{Name: "external-url", Usage: "URL of externally hosted timeline JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("timeline id is required"))
			}

			output, err := ops.Share(db, cfg, ops.ShareInput{
				TimelineID:  c.Args().First(),
				Name:        c.String("name"),
				Bio:         c.String("bio"),
				ProfilePic:  c.String("profile-pic"),
				ExternalURL: c.String("external-url"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a timeline to a JSON file",
		ArgsUsage: "<timeline-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.timecap/exports/<name>-<timestamp>.json)"},
			&cli.BoolFlag{Name: "shareable", Usage: "Strip embedded data: media, matching the inline share payload"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("timeline id is required"))
			}

			output, err := ops.Export(db, cfg, ops.ExportInput{
				TimelineID: c.Args().First(),
				Path:       c.String("path"),
				Shareable:  c.Bool("shareable"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a timeline from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name for the imported timeline (default: derived from filename)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Name: c.String("name"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// themeCmd creates the theme command.
func themeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "theme",
		Usage:     "Get or set the UI theme",
		ArgsUsage: "[light|dark]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				theme, err := ops.GetTheme(db)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]string{"theme": theme})
			}

			theme := c.Args().First()
			if err := ops.SetTheme(db, theme); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]string{"theme": theme})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8321, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
