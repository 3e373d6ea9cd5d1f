// Command layoutctl inspects and resets the column widths the console
// stores per table.
//
//	layoutctl [-config-dir DIR] list
//	layoutctl [-config-dir DIR] show TABLE
//	layoutctl [-config-dir DIR] reset TABLE
//	layoutctl [-config-dir DIR] reset-all
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"

	"github.com/bekirdag/admin-console/internal/config"
	"github.com/bekirdag/admin-console/internal/grid"
	"github.com/bekirdag/admin-console/internal/layout"
	"github.com/bekirdag/admin-console/internal/localstore"
	"github.com/bekirdag/admin-console/internal/resources"
)

func main() {
	dir := flag.String("config-dir", config.DefaultDir(), "console config directory")
	flag.Parse()

	store, err := localstore.Open(*dir)
	if err != nil {
		exit(fmt.Errorf("open store: %w", err))
	}
	defer store.Close()

	if err := run(store, flag.Args(), os.Stdout); err != nil {
		store.Close()
		exit(err)
	}
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "layoutctl: %v\n", err)
	os.Exit(1)
}

// tableStore is the part of localstore.Store the commands use.
type tableStore interface {
	layout.KV
	Keys(prefix string) ([]string, error)
	DeleteAll(keys []string) error
}

func run(store tableStore, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command: list, show, reset or reset-all")
	}
	layouts := layout.New(store)
	switch args[0] {
	case "list":
		return list(store, layouts, out)
	case "show":
		if len(args) < 2 {
			return errors.New("show needs a table id")
		}
		return show(layouts, args[1], out)
	case "reset":
		if len(args) < 2 {
			return errors.New("reset needs a table id")
		}
		if err := layouts.Reset(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "reset %s\n", args[1])
		return nil
	case "reset-all":
		keys, err := store.Keys(layout.KeyPrefix)
		if err != nil {
			return err
		}
		if err := store.DeleteAll(keys); err != nil {
			return err
		}
		fmt.Fprintf(out, "reset %d tables\n", len(keys))
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func list(store tableStore, layouts *layout.Store, out io.Writer) error {
	keys, err := store.Keys(layout.KeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(out, "no stored layouts")
		return nil
	}
	for _, key := range keys {
		id, ok := layout.TableID(key)
		if !ok {
			continue
		}
		widths, err := layouts.Get(id)
		if err != nil {
			fmt.Fprintf(out, "%s  unreadable: %v\n", runewidth.FillRight(id, 16), err)
			continue
		}
		fmt.Fprintf(out, "%s  %d resized\n", runewidth.FillRight(id, 16), len(widths))
	}
	return nil
}

func show(layouts *layout.Store, tableID string, out io.Writer) error {
	widths, err := layouts.Get(tableID)
	if err != nil {
		return err
	}
	var columns []grid.Column
	if r, ok := resources.Lookup(tableID); ok {
		columns = r.Grid.Columns
	}
	if len(columns) == 0 {
		for _, idx := range widths.Indexes() {
			fmt.Fprintf(out, "%3d  %dpx\n", idx, widths[idx])
		}
		return nil
	}
	for i, col := range columns {
		width, resized := widths[i], true
		if width == 0 {
			width, resized = col.Width, false
		}
		mark := ""
		if resized {
			mark = "  *"
		}
		fmt.Fprintf(out, "%3d  %s %6dpx%s\n", i, runewidth.FillRight(grid.HeaderTitle(col), 14), width, mark)
	}
	return nil
}
