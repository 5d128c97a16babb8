package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dori/taskman/internal/app"
	"github.com/dori/taskman/internal/model"
	"github.com/dori/taskman/internal/store"
	"github.com/dori/taskman/internal/tasklist"
)

// errUsage marks a malformed command line
var errUsage = errors.New("usage")

// cli runs the one-shot subcommands against an open app
type cli struct {
	app    *app.App
	in     *bufio.Reader
	out    io.Writer
	getenv func(string) string
}

func newCLI(a *app.App, in io.Reader, out io.Writer, getenv func(string) string) *cli {
	return &cli{app: a, in: bufio.NewReader(in), out: out, getenv: getenv}
}

func (c *cli) run(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]
	switch name {
	case "add":
		return c.add(ctx, rest)
	case "list", "ls":
		return c.list(ctx, rest)
	case "done", "toggle":
		return c.toggle(ctx, rest)
	case "rm", "delete":
		return c.remove(ctx, rest)
	case "clear":
		return c.clear(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.app.Session.SignOut(ctx)
	case "whoami":
		return c.whoami(ctx)
	case "doctor":
		return c.doctor(ctx)
	}
	return fmt.Errorf("%w: unknown command %q (see taskman help)", errUsage, name)
}

func (c *cli) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: taskman add <task>", errUsage)
	}
	task, err := c.app.Tasks.Add(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created: %s %s\n", task.ShortID(), task.Text)
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.out)
	sortName := fs.String("sort", string(c.app.Config.Sort()), "Sort order: date or status")
	keyword := fs.String("search", "", "Only show tasks containing this text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opt, err := tasklist.ParseSortOption(*sortName)
	if err != nil {
		return err
	}

	tasks, err := c.app.Tasks.Load(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(c.out, "List is empty")
		return nil
	}

	visible := tasklist.Project(tasks, opt, *keyword)
	for _, task := range visible {
		mark := "[ ]"
		if task.Completed {
			mark = "[x]"
		}
		text, _, _ := strings.Cut(task.Text, "\n")
		fmt.Fprintf(c.out, "%s %s %s\n", mark, task.ShortID(), text)
	}

	counts := tasklist.Count(tasks)
	fmt.Fprintf(c.out, "\n%d shown, %d total, %d pending, %d done\n",
		len(visible), counts.Total, counts.Pending, counts.Completed)
	return nil
}

func (c *cli) toggle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: taskman done <id>", errUsage)
	}
	id, err := c.resolveID(ctx, args[0])
	if err != nil {
		return err
	}
	task, err := c.app.Tasks.Toggle(ctx, id)
	if err != nil {
		return err
	}
	if task.Completed {
		fmt.Fprintf(c.out, "Completed: %s\n", task.Text)
		if err := c.app.Notifier.TaskCompleted(task.Text); err != nil {
			fmt.Fprintf(c.out, "Warning: notification failed: %v\n", err)
		}
	} else {
		fmt.Fprintf(c.out, "Reopened: %s\n", task.Text)
	}
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.SetOutput(c.out)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: taskman rm [--yes] <id>", errUsage)
	}

	id, err := c.resolveID(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	err = c.app.Tasks.Delete(ctx, id, c.confirm(*yes))
	if errors.Is(err, store.ErrCancelled) {
		fmt.Fprintln(c.out, "Cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Deleted")
	return nil
}

func (c *cli) clear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(c.out)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := c.app.Tasks.DeleteAll(ctx, c.confirm(*yes))
	if errors.Is(err, store.ErrCancelled) {
		fmt.Fprintln(c.out, "Cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "All tasks deleted")
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: taskman register <username>", errUsage)
	}
	password, err := c.password()
	if err != nil {
		return err
	}
	if err := c.app.Users.Register(ctx, args[0], password); err != nil {
		return err
	}
	if err := c.app.Session.SignIn(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "User registered successfully")
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: taskman login <username>", errUsage)
	}
	password, err := c.password()
	if err != nil {
		return err
	}
	if err := c.app.Users.Authenticate(ctx, args[0], password); err != nil {
		return err
	}
	if err := c.app.Session.SignIn(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Login successful")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	user, ok, err := c.app.Session.Current(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, "Not signed in")
		return nil
	}
	fmt.Fprintln(c.out, user)
	return nil
}

// doctor reports the stored keys and whether each payload still decodes
func (c *cli) doctor(ctx context.Context) error {
	fmt.Fprintf(c.out, "Database: %s\n", c.app.DB.Path())

	keys, err := c.app.DB.Keys(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Keys: %s\n", strings.Join(keys, ", "))

	var failed int
	if tasks, err := c.app.Tasks.Load(ctx); err != nil {
		failed++
		fmt.Fprintf(c.out, "tasks: %v\n", err)
	} else {
		fmt.Fprintf(c.out, "tasks: ok (%d)\n", len(tasks))
	}
	if users, err := c.app.Users.Usernames(ctx); err != nil {
		failed++
		fmt.Fprintf(c.out, "users: %v\n", err)
	} else {
		fmt.Fprintf(c.out, "users: ok (%d)\n", len(users))
	}
	if user, ok, err := c.app.Session.Current(ctx); err != nil {
		failed++
		fmt.Fprintf(c.out, "user: %v\n", err)
	} else if ok {
		fmt.Fprintf(c.out, "user: ok (%s)\n", user)
	} else {
		fmt.Fprintln(c.out, "user: ok (signed out)")
	}

	if failed > 0 {
		return fmt.Errorf("%d stored collection(s) could not be read", failed)
	}
	return nil
}

// password reads TASKMAN_PASSWORD, falling back to a prompt
func (c *cli) password() (string, error) {
	if p := c.getenv("TASKMAN_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(c.out, "Password: ")
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

// confirm returns a store.Confirm that asks on the terminal unless yes is set
func (c *cli) confirm(yes bool) store.Confirm {
	if yes {
		return store.Confirmed
	}
	return func(prompt string) bool {
		fmt.Fprintf(c.out, "%s [y/N] ", prompt)
		answer, err := c.readLine()
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func (c *cli) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// resolveID accepts a full id, a unique prefix, or the short id shown by list
func (c *cli) resolveID(ctx context.Context, ref string) (string, error) {
	tasks, err := c.app.Tasks.Load(ctx)
	if err != nil {
		return "", err
	}
	return matchID(tasks, ref)
}

func matchID(tasks []model.Task, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: task id must not be empty", errUsage)
	}

	var matches []string
	for _, task := range tasks {
		if task.ID == ref {
			return task.ID, nil
		}
		if task.ShortID() == ref || strings.HasPrefix(task.ID, ref) {
			if !slices.Contains(matches, task.ID) {
				matches = append(matches, task.ID)
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%q: %w", ref, store.ErrTaskNotFound)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%q matches %d tasks, use more of the id", ref, len(matches))
}
