// Package cli implements the command-line surface for nullus.
//
// The surface is a mutually exclusive group of action flags, each
// mapping 1:1 to one operation on the task collection. Exactly one
// action is accepted per invocation; none at all prints usage.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nullus/nullus/internal/config"
	"github.com/nullus/nullus/internal/logging"
	"github.com/nullus/nullus/internal/store"
	"github.com/nullus/nullus/internal/task"
	"github.com/nullus/nullus/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the nullus CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("nullus", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}

	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")

	list := fs.Bool("list", false, "List active task(s) matching a regex; all if omitted")
	fs.BoolVar(list, "l", false, "List active task(s)")
	add := fs.Bool("add", false, "Add task(s)")
	fs.BoolVar(add, "a", false, "Add task(s)")
	update := fs.Bool("update", false, "Replace the description of task ID")
	fs.BoolVar(update, "u", false, "Replace the description of task ID")
	done := fs.Bool("done", false, "Toggle task(s) done")
	fs.BoolVar(done, "d", false, "Toggle task(s) done")
	scheduleDate := fs.String("schedule", "", "Schedule task(s) to DATE (YYYY-MM-DD)")
	fs.StringVar(scheduleDate, "s", "", "Schedule task(s) to DATE (YYYY-MM-DD)")
	deadlineDate := fs.String("deadline", "", "Give task(s) a deadline DATE (YYYY-MM-DD)")
	pin := fs.Bool("pin", false, "Toggle task(s) pinned")
	fs.BoolVar(pin, "p", false, "Toggle task(s) pinned")
	del := fs.Bool("delete", false, "Toggle task(s) visibility")
	prune := fs.Bool("prune", false, "Hide done task(s) and reassign ids")
	purge := fs.Bool("purge", false, "Permanently remove task(s) from storage")
	dump := fs.Bool("dump", false, "List every task, hidden ones included")
	dumpr := fs.Bool("dumpr", false, "List every task matching a regex, hidden ones included")
	doctor := fs.Bool("doctor", false, "Check config and task file validity")
	tui := fs.Bool("tui", false, "Launch the terminal viewer")

	filePath := fs.String("file", "", "Task file override")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "nullus version %s\n", Version)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *filePath != "" {
		cfg.DataFile = *filePath
	}
	if cfg.DataFile == "" {
		return fmt.Errorf("no usable task file path; set data_file in the config file or pass -file")
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	logger := logging.New(cfg.LogLevel)
	logger.Debug("using task file", "path", cfg.DataFile)

	var actions []string
	for name, on := range map[string]bool{
		"list":     *list,
		"add":      *add,
		"update":   *update,
		"done":     *done,
		"schedule": *scheduleDate != "",
		"deadline": *deadlineDate != "",
		"pin":      *pin,
		"delete":   *del,
		"prune":    *prune,
		"purge":    *purge,
		"dump":     *dump,
		"dumpr":    *dumpr,
		"doctor":   *doctor,
		"tui":      *tui,
	} {
		if on {
			actions = append(actions, name)
		}
	}
	if len(actions) > 1 {
		return &task.ValidationError{
			Field: "flags",
			Err:   fmt.Errorf("conflicting actions %s: exactly one allowed", strings.Join(actions, ", ")),
		}
	}
	if len(actions) == 0 {
		printUsage(fs, stdout)
		return nil
	}

	st := store.New(cfg.DataFile)
	rest := fs.Args()

	switch actions[0] {
	case "list":
		return listCommand(st, rest, stdout)
	case "add":
		return addCommand(logger, st, rest)
	case "update":
		return updateCommand(logger, st, rest)
	case "done":
		return doneCommand(logger, st, rest)
	case "schedule":
		return scheduleCommand(logger, st, *scheduleDate, rest)
	case "deadline":
		return deadlineCommand(logger, st, *deadlineDate, rest)
	case "pin":
		return pinCommand(logger, st, rest)
	case "delete":
		return deleteCommand(logger, st, rest)
	case "prune":
		return pruneCommand(logger, st, rest)
	case "purge":
		return purgeCommand(logger, st, rest)
	case "dump":
		return dumpCommand(st, rest, stdout)
	case "dumpr":
		return dumprCommand(st, rest, stdout)
	case "doctor":
		return doctorCommand(cfg, st, stdout)
	case "tui":
		return ui.Run(ctx, st)
	default:
		return fmt.Errorf("unknown action: %s", actions[0])
	}
}

// mutate runs one load-modify-save cycle. A failed operation returns
// before Save, so the file on disk stays byte-for-byte unchanged.
func mutate(logger *log.Logger, st *store.Store, op func(task.List) (task.List, error)) error {
	tasks, err := st.Load()
	if err != nil {
		return err
	}
	next, err := op(tasks)
	if err != nil {
		return err
	}
	if err := st.Save(next); err != nil {
		return err
	}
	logger.Debug("saved", "rows", len(next))
	return nil
}

func listCommand(st *store.Store, args []string, stdout io.Writer) error {
	pattern, err := patternArg(args)
	if err != nil {
		return err
	}
	tasks, err := st.Load()
	if err != nil {
		return err
	}
	matched, err := tasks.Filter(pattern)
	if err != nil {
		return err
	}
	printList(stdout, matched)
	return nil
}

func addCommand(logger *log.Logger, st *store.Store, args []string) error {
	if len(args) == 0 {
		return &task.ValidationError{Field: "add", Err: fmt.Errorf("need at least one description")}
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Add(time.Now().UTC(), args...)
	})
}

func updateCommand(logger *log.Logger, st *store.Store, args []string) error {
	if len(args) != 2 {
		return &task.ValidationError{Field: "update", Err: fmt.Errorf("want ID and description, got %d arguments", len(args))}
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Update(id, args[1])
	})
}

func doneCommand(logger *log.Logger, st *store.Store, args []string) error {
	ids, err := idArgs("done", args)
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.ToggleDone(time.Now().UTC(), ids...)
	})
}

func scheduleCommand(logger *log.Logger, st *store.Store, date string, args []string) error {
	d, ids, err := dateAndIDs("schedule", date, args)
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Schedule(d, ids...)
	})
}

func deadlineCommand(logger *log.Logger, st *store.Store, date string, args []string) error {
	d, ids, err := dateAndIDs("deadline", date, args)
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.SetDeadline(d, ids...)
	})
}

func pinCommand(logger *log.Logger, st *store.Store, args []string) error {
	ids, err := idArgs("pin", args)
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Pin(ids...)
	})
}

func deleteCommand(logger *log.Logger, st *store.Store, args []string) error {
	ids, err := idArgs("delete", args)
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Delete(ids...)
	})
}

func pruneCommand(logger *log.Logger, st *store.Store, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Prune(), nil
	})
}

func purgeCommand(logger *log.Logger, st *store.Store, args []string) error {
	ids, err := idArgs("purge", args)
	if err != nil {
		return err
	}
	return mutate(logger, st, func(tasks task.List) (task.List, error) {
		return tasks.Purge(ids...)
	})
}

func dumpCommand(st *store.Store, args []string, stdout io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	tasks, err := st.Load()
	if err != nil {
		return err
	}
	printDump(stdout, tasks.Dump())
	return nil
}

func dumprCommand(st *store.Store, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return &task.ValidationError{Field: "dumpr", Err: fmt.Errorf("want exactly one regex")}
	}
	tasks, err := st.Load()
	if err != nil {
		return err
	}
	matched, err := tasks.Dumpr(args[0])
	if err != nil {
		return err
	}
	printDump(stdout, matched)
	return nil
}

// patternArg extracts the optional regex argument for list.
func patternArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("unexpected arguments: %v", args[1:])
	}
}

// idArgs parses one or more task id arguments.
func idArgs(action string, args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, &task.ValidationError{Field: action, Err: fmt.Errorf("need at least one task id")}
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// dateAndIDs validates the date flag and parses trailing ids, which may
// be empty: the date is still checked, it just applies to nothing.
func dateAndIDs(action, date string, args []string) (task.Date, []int, error) {
	d, err := task.ParseDate(date)
	if err != nil {
		return task.Date{}, nil, &task.ValidationError{Field: action + " date", Err: err}
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return task.Date{}, nil, err
		}
		ids = append(ids, id)
	}
	return d, ids, nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, &task.ValidationError{Field: "task id", Err: fmt.Errorf("%q is not an integer", arg)}
	}
	return id, nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Nullus - A personal command-line task tracker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  nullus [action] [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions (exactly one per invocation):")
	fmt.Fprintln(w, "  -l, --list [REGEX]          List active tasks, optionally filtered")
	fmt.Fprintln(w, "  -a, --add TASK...           Add task(s)")
	fmt.Fprintln(w, "  -u, --update ID DESC        Replace the description of task ID")
	fmt.Fprintln(w, "  -d, --done ID...            Toggle task(s) done")
	fmt.Fprintln(w, "  -s, --schedule DATE [ID...] Schedule task(s) to DATE (YYYY-MM-DD)")
	fmt.Fprintln(w, "      --deadline DATE [ID...] Give task(s) a deadline (YYYY-MM-DD)")
	fmt.Fprintln(w, "  -p, --pin ID...             Toggle task(s) pinned")
	fmt.Fprintln(w, "      --delete ID...          Toggle task(s) visibility")
	fmt.Fprintln(w, "      --prune                 Hide done tasks and reassign ids")
	fmt.Fprintln(w, "      --purge ID...           Permanently remove task(s)")
	fmt.Fprintln(w, "      --dump                  List every task, hidden ones included")
	fmt.Fprintln(w, "      --dumpr REGEX           Like --dump, filtered by regex")
	fmt.Fprintln(w, "      --doctor                Check config and task file validity")
	fmt.Fprintln(w, "      --tui                   Launch the terminal viewer")
	fmt.Fprintln(w, "      --version               Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -file PATH")
	fmt.Fprintln(w, "        Task file override")
	fmt.Fprintln(w, "  -verbose")
	fmt.Fprintln(w, "        Enable debug logging")
}

// printList prints the visible listing: pin marker, id, status,
// description, and date columns only when some row uses them.
func printList(w io.Writer, tasks task.List) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No active tasks found.")
		return
	}

	anyPinned, anySched, anyDead := false, false, false
	for _, t := range tasks {
		anyPinned = anyPinned || t.Pinned
		anySched = anySched || !t.Scheduled.IsZero()
		anyDead = anyDead || !t.Deadline.IsZero()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range tasks {
		var cols []string
		if anyPinned {
			pin := ""
			if t.Pinned {
				pin = "*"
			}
			cols = append(cols, pin)
		}
		cols = append(cols, strconv.Itoa(t.ID), string(t.Status), t.Desc)
		if anySched {
			cols = append(cols, t.Scheduled.String())
		}
		if anyDead {
			cols = append(cols, t.Deadline.String())
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	tw.Flush()
}

// printDump prints the diagnostic listing with every column.
func printDump(w io.Writer, tasks task.List) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tstatus\tdesc\tscheduled\tdeadline\tvisible\tpin\tdone_date")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
			t.ID, t.Status, t.Desc, t.Scheduled, t.Deadline,
			t.Visible, t.Pinned, t.DoneDate)
	}
	tw.Flush()
}

// doctorCommand checks config, the task file, and schema validity.
func doctorCommand(cfg *config.Config, st *store.Store, stdout io.Writer) error {
	fmt.Fprintln(stdout, "Nullus Doctor")
	fmt.Fprintln(stdout, "=============")
	fmt.Fprintln(stdout)

	allOK := true

	fmt.Fprintf(stdout, "Task file: %s\n", st.Path())
	if _, err := os.Stat(st.Path()); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first use)")
		} else {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Fprintln(stdout, "  ✅ OK")
		tasks, err := st.Load()
		if err != nil {
			fmt.Fprintf(stdout, "  ❌ Load error: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(stdout, "  Rows: %d (%d visible)\n", len(tasks), len(tasks.Visible()))
			if errs := store.Validate(tasks); len(errs) > 0 {
				fmt.Fprintln(stdout, "  ❌ Schema validation failed:")
				for _, e := range errs {
					fmt.Fprintf(stdout, "     - %v\n", e)
				}
				allOK = false
			} else {
				fmt.Fprintln(stdout, "  ✅ Valid")
			}
		}
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Log level: %s\n", cfg.LogLevel)
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}
