package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Ayala-Braverman/practicod3-1/internal/client"
	"github.com/Ayala-Braverman/practicod3-1/internal/model"
)

const defaultAPIURL = "http://localhost:8080/api"

type app struct {
	apiURL      string
	sessionPath string
	client      *client.Client
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Personal task list client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.apiURL, "api", envOr("TODO_API_URL", defaultAPIURL), "API base URL")
	cmd.PersistentFlags().StringVar(&a.sessionPath, "session", "", "Session file (default: user config dir)")

	cmd.AddCommand(
		a.authCmd("register", "Create an account and log in", a.register),
		a.authCmd("login", "Log in", a.login),
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.client.Logout(); err != nil {
					return err
				}
				ok(cmd, "logged out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the logged in user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.client.CurrentUser()
				if err != nil {
					return err
				}
				if user == nil {
					return errNotLoggedIn
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", user.UserName, user.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List tasks",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tasks, err := a.client.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				user, _ := a.client.CurrentUser()
				fmt.Fprintln(cmd.OutOrStdout(), renderTasks(user, tasks))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name...>",
			Short: "Add a task (name can be multiple words)",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				task, err := a.client.AddTask(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				ok(cmd, fmt.Sprintf("added #%d %s", task.ID, task.Name))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one task",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				task, err := a.client.Task(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTask(*task))
				return nil
			},
		},
		a.completeCmd("done", "Mark a task complete", true),
		a.completeCmd("undo", "Mark a task pending", false),
		&cobra.Command{
			Use:   "rename <id> <name...>",
			Short: "Rename a task, keeping its status",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				task, err := a.client.Task(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := a.client.UpdateTask(cmd.Context(), id, strings.Join(args[1:], " "), task.IsComplete); err != nil {
					return err
				}
				ok(cmd, fmt.Sprintf("renamed #%d", id))
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a task",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.client.DeleteTask(cmd.Context(), id); err != nil {
					return err
				}
				ok(cmd, fmt.Sprintf("deleted #%d", id))
				return nil
			},
		},
	)

	return cmd
}

var errNotLoggedIn = errors.New("not logged in; run `todo login` or `todo register`")

const sessionRejectedMsg = "session expired or rejected; log in again with `todo login`"

func (a *app) init(cmd *cobra.Command) error {
	path := a.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return err
		}
	}
	a.client = client.New(a.apiURL, client.NewFileStore(path), client.OnUnauthenticated(func() {
		failTo(cmd.ErrOrStderr(), sessionRejectedMsg)
	}))
	return nil
}

func (a *app) authCmd(use, short string, run func(cmd *cobra.Command, userName, password string) error) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   use + " <userName>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(); err != nil {
					return err
				}
			}
			return run(cmd, args[0], password)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", os.Getenv("TODO_PASSWORD"), "Password (prompted when empty)")
	return cmd
}

func (a *app) register(cmd *cobra.Command, userName, password string) error {
	user, err := a.client.Register(cmd.Context(), userName, password)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUser) {
			return fmt.Errorf("user name %q is taken", userName)
		}
		return err
	}
	ok(cmd, "registered and logged in as "+user.UserName)
	return nil
}

func (a *app) login(cmd *cobra.Command, userName, password string) error {
	user, err := a.client.Login(cmd.Context(), userName, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return errors.New("invalid user name or password")
		}
		return err
	}
	ok(cmd, "logged in as "+user.UserName)
	return nil
}

func (a *app) completeCmd(use, short string, isComplete bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.SetComplete(cmd.Context(), id, isComplete); err != nil {
				return err
			}
			ok(cmd, fmt.Sprintf("#%d %s", id, statusLabel(isComplete)))
			return nil
		},
	}
}

func promptPassword() (string, error) {
	rl, err := readline.New("")
	if err != nil {
		return "", fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	pw, err := rl.ReadPassword("password: ")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("not a task id: %s", s)
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
