// The run command: sign in, load the roster, and drive the engine from
// an interactive operator loop.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/bootstrap"
	"github.com/eliomatters/matterhub/internal/app/engine"
	"github.com/eliomatters/matterhub/internal/app/system/authflow"
	"github.com/eliomatters/matterhub/internal/app/system/settings"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sign in and manage the roster interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(logLevel())
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg, err := bootstrap.LoadConfig(vp, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.Startup(ctx, cfg, stdinPrompter, logger)
		if err != nil {
			if errors.Is(err, authflow.ErrPortUnavailable) {
				return fmt.Errorf("the sign-in callback port is in use; close the other process or change --callback-addr: %w", err)
			}
			return err
		}
		defer func() {
			if err := app.Shutdown(context.Background()); err != nil {
				logger.Warn("shutdown incomplete", zap.Error(err))
			}
		}()

		return operatorLoop(ctx, app)
	},
}

func logLevel() string {
	if flagLogLevel != "" {
		return flagLogLevel
	}
	if lvl := os.Getenv("MATTERHUB_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// stdinPrompter asks a yes/no question on the terminal.
func stdinPrompter(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func operatorLoop(ctx context.Context, app *bootstrap.App) error {
	eng := app.Engine
	fmt.Printf("matterhub ready: %d documents, %s mode. Type 'help'.\n",
		eng.Count(), app.Session.Mode)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			if eng.Dirty().Count() > 0 && !stdinPrompter(fmt.Sprintf("%d unsaved edits. Quit anyway?", eng.Dirty().Count())) {
				continue
			}
			return nil
		}
		if err := dispatch(ctx, app, cmd, args); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, app *bootstrap.App, cmd string, args []string) error {
	eng := app.Engine
	switch cmd {
	case "help":
		printHelp()
	case "list":
		for _, id := range eng.VisibleIDs() {
			doc, _ := eng.Get(id)
			mark := " "
			if eng.Dirty().IsDirty(id) {
				mark = "*"
			}
			fmt.Printf("%s %-12s %s\n", mark, id, summarize(doc, eng.Columns()))
		}
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("usage: show <id>")
		}
		doc, ok := eng.Get(args[0])
		if !ok {
			return engine.ErrUnknownDocument
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if rec, ok := eng.AttendanceFor(args[0]); ok {
			fmt.Printf("attendance: day1=%t day2=%t day3=%t (%d/%d) recordedBy=%s\n",
				rec.Day1, rec.Day2, rec.Day3, rec.DaysPresent(), len(models.AttendanceDays), rec.RecordedBy)
		}
	case "search":
		return applyCriteria(eng, eng.SetSearch, args)
	case "filter":
		return applyCriteria(eng, eng.SetFilter, args)
	case "edit":
		if len(args) < 3 {
			return fmt.Errorf("usage: edit <id> <field> <value>")
		}
		return eng.Edit(args[0], resolveField(eng.Columns(), args[1]), strings.Join(args[2:], " "))
	case "revert":
		if len(args) != 1 {
			return fmt.Errorf("usage: revert <id>")
		}
		eng.Revert(args[0])
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("usage: save <id>")
		}
		return eng.Save(ctx, args[0])
	case "saveall":
		s, err := eng.SaveAll(ctx)
		if err != nil {
			return err
		}
		reportSummary("saved", s)
	case "delete":
		if len(args) == 0 {
			return fmt.Errorf("usage: delete <id> [id...]")
		}
		if !stdinPrompter(fmt.Sprintf("Delete %d document(s)? This cannot be undone.", len(args))) {
			fmt.Println("cancelled")
			return nil
		}
		s, err := eng.Delete(ctx, args)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d, failed %d\n", s.Deleted, s.Failed)
		for _, e := range s.Errors {
			fmt.Printf("  %v\n", e)
		}
	case "attend":
		if len(args) != 3 {
			return fmt.Errorf("usage: attend <id> <day1|day2|day3> <on|off>")
		}
		return eng.SetAttendanceDay(args[0], args[1], args[2] == "on")
	case "attsave":
		user := os.Getenv("USER")
		if user == "" {
			user = "operator"
		}
		s, err := eng.SaveAllAttendance(ctx, user)
		if err != nil {
			return err
		}
		reportSummary("attendance saved", s)
	case "reload":
		force := len(args) == 1 && args[0] == "force"
		res, err := eng.Load(ctx, force)
		if errors.Is(err, engine.ErrDirtyEdits) {
			if !stdinPrompter("Unsaved edits will be lost. Reload anyway?") {
				fmt.Println("cancelled")
				return nil
			}
			res, err = eng.Load(ctx, true)
		}
		if err != nil {
			return err
		}
		if res.Warning != "" {
			fmt.Println("warning:", res.Warning)
		}
		fmt.Printf("loaded %d documents, %d attendance records (%s mode)\n",
			res.Documents, res.Attendance, res.Mode)
	case "check":
		if err := eng.ConnectivityCheck(ctx); err != nil {
			return err
		}
		fmt.Println("store reachable, read and write verified")
	case "columns":
		for _, c := range eng.Columns() {
			field := "(id)"
			if c.Field != nil {
				field = *c.Field
			}
			fmt.Printf("%-16s %-24s editable=%t\n", c.Display, field, c.Editable)
		}
	case "export":
		if len(args) != 1 {
			return fmt.Errorf("usage: export <path>")
		}
		return exportSnapshot(eng, args[0])
	case "config":
		return configCmd(app.Settings, args)
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return nil
}

// configCmd manages the persisted settings store. Changing the key URL
// or collection remembers the resulting endpoint set under the new
// value's name, so recent configurations accumulate as the operator
// moves between events.
func configCmd(st *settings.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: config show|set|recent|use|export|import")
	}
	switch args[0] {
	case "show":
		ep := st.Endpoints()
		keys := make([]string, 0, len(ep))
		for k := range ep {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-16s %v\n", k, ep[k])
		}
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: config set <key> <value>")
		}
		key, val := args[1], strings.Join(args[2:], " ")
		if _, ok := st.Endpoints()[key]; !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		st.Set(key, val)
		if key == settings.KeyURL || key == settings.CollectionName {
			st.AddRecent(val, st.Endpoints())
		}
		if err := st.Sync(); err != nil {
			return err
		}
		fmt.Println("saved; takes effect on the next run")
	case "recent":
		recent := st.Recent()
		if len(recent) == 0 {
			fmt.Println("no remembered configurations")
			return nil
		}
		for _, r := range recent {
			fmt.Printf("%-32s %v\n", r.Name, r.Values[settings.CollectionName])
		}
	case "use":
		if len(args) != 2 {
			return fmt.Errorf("usage: config use <name>")
		}
		for _, r := range st.Recent() {
			if r.Name != args[1] {
				continue
			}
			for k, v := range r.Values {
				st.Set(k, v)
			}
			if err := st.Sync(); err != nil {
				return err
			}
			fmt.Println("applied; takes effect on the next run")
			return nil
		}
		return fmt.Errorf("no remembered configuration named %q", args[1])
	case "export":
		if len(args) != 2 {
			return fmt.Errorf("usage: config export <path>")
		}
		return st.Export(args[1])
	case "import":
		if len(args) != 2 {
			return fmt.Errorf("usage: config import <path>")
		}
		if err := st.Import(args[1]); err != nil {
			return err
		}
		return st.Sync()
	default:
		return fmt.Errorf("unknown config command %q", args[0])
	}
	return nil
}

func applyCriteria(eng *engine.Engine, set func(field, text string), args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		set("", "")
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: <field> <text>, or 'clear'")
	}
	set(resolveField(eng.Columns(), args[0]), strings.Join(args[1:], " "))
	return nil
}

// resolveField maps a column display name to its document field; bare
// field names pass through untouched. The identity column resolves to
// the ID sentinel the engine filters on.
func resolveField(cols models.Columns, name string) string {
	if f, ok := cols.FieldFor(name); ok {
		if f == nil {
			return engine.DocumentID
		}
		return *f
	}
	return name
}

func reportSummary(verb string, s engine.Summary) {
	fmt.Printf("%s %d, failed %d\n", verb, s.Saved, s.Failed)
	for _, e := range s.Errors {
		fmt.Printf("  %v\n", e)
	}
}

// summarize renders the first few column values for the list view.
func summarize(doc models.Document, cols models.Columns) string {
	parts := make([]string, 0, 3)
	for _, c := range cols {
		if c.Field == nil {
			continue
		}
		if v, ok := doc[*c.Field]; ok {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, " | ")
}

func exportSnapshot(eng *engine.Engine, path string) error {
	snap := eng.Snapshot()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported %d documents to %s\n", len(snap.Documents), path)
	return nil
}

func printHelp() {
	fmt.Print(`commands:
  list                      show visible rows (* marks unsaved edits)
  show <id>                 print one document and its attendance
  search <field> <text>     substring match (field "_id" targets the ID); 'search clear' resets
  filter <field> <text>     exact match, combined with search; 'filter clear' resets
  edit <id> <field> <v>     stage a field edit
  revert <id>               drop staged edits for a document
  save <id> | saveall       commit staged edits
  delete <id> [id...]       delete documents (asks first)
  attend <id> <day> on|off  toggle attendance locally
  attsave                   commit attendance changes
  reload [force]            refresh from the store
  check                     connectivity check with a probe write
  columns                   show the column schema
  export <path>             write a JSON snapshot
  config show|set|recent|use|export|import
                            manage the persisted settings store
  quit
`)
}
