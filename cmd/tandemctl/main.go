// Package main provides tandemctl, a scriptable client for the task API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/riordanpawley/tandem/internal/cli"
	"github.com/riordanpawley/tandem/internal/config"
	"github.com/riordanpawley/tandem/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]
	if command == "help" || command == "-h" || command == "--help" {
		cli.PrintUsage(os.Stdout)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	deps, err := cli.NewDependencies(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(deps, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message(err))
		os.Exit(1)
	}
}

func run(deps *cli.Dependencies, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	project := fs.String("project", "", "project ID or remembered name")

	switch command {
	case "list", "ls":
		view := fs.String("view", deps.Config.Board.DefaultView, "all, active, backlog or done")
		query := fs.String("q", "", "text filter")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.ListCommand(deps, *project, domain.ParseView(*view), *query)

	case "create":
		status := fs.String("status", string(domain.StatusTodo), "initial status")
		priority := fs.String("priority", domain.DefaultPriority, "urgent, high, medium or low")
		description := fs.String("description", "", "task description")
		labels := fs.String("labels", "", "comma-separated labels")
		due := fs.String("due", "", "due date (YYYY-MM-DD)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		st, err := domain.ParseStatus(*status)
		if err != nil {
			return err
		}
		n := domain.NewTask{
			Title:       strings.Join(fs.Args(), " "),
			Description: *description,
			Status:      st,
			Priority:    *priority,
			Labels:      *labels,
		}
		if *due != "" {
			d, err := time.Parse("2006-01-02", *due)
			if err != nil {
				return fmt.Errorf("invalid due date %q: want YYYY-MM-DD", *due)
			}
			n.DueDate = &d
		}
		return cli.CreateCommand(deps, *project, n)

	case "move":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return errors.New("usage: tandemctl move [-project P] <task-id> <status>")
		}
		st, err := domain.ParseStatus(fs.Arg(1))
		if err != nil {
			return err
		}
		return cli.MoveCommand(deps, *project, fs.Arg(0), st)

	case "assign":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() < 2 {
			return errors.New("usage: tandemctl assign [-project P] <task-id> <user-id>...")
		}
		return cli.AssignCommand(deps, *project, fs.Arg(0), fs.Args()[1:])

	case "users":
		exclude := fs.String("exclude", "", "task whose assignees are left out")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.UsersSearchCommand(deps, strings.Join(fs.Args(), " "), *exclude)

	case "projects":
		return cli.ProjectsCommand(deps)

	case "use":
		if len(args) != 1 {
			return errors.New("usage: tandemctl use <project>")
		}
		return cli.ProjectUseCommand(deps, args[0])

	case "login":
		if len(args) != 1 {
			return errors.New("usage: tandemctl login <token>")
		}
		return cli.LoginCommand(deps, args[0])
	}

	cli.PrintUsage(os.Stderr)
	return fmt.Errorf("unknown command: %s", command)
}

// message prefers the readable text of engine errors
func message(err error) string {
	switch domain.Classify(err) {
	case domain.KindValidation, domain.KindRejected:
		return domain.UserMessage(err)
	}
	return err.Error()
}
