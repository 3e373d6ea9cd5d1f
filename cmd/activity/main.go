// Command activity summarises the console's activity log by event and
// resource.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bekirdag/admin-console/internal/config"
)

type event struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id"`
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	Resource  string            `json:"resource"`
	RecordID  string            `json:"record_id"`
	Extra     map[string]string `json:"extra"`
}

type count struct {
	Key   string `json:"key"`
	Total int    `json:"total"`
	Fails int    `json:"failures"`
}

type report struct {
	Source     string    `json:"source"`
	Lines      int       `json:"lines"`
	Skipped    int       `json:"skipped"`
	Sessions   int       `json:"sessions"`
	Users      []string  `json:"users"`
	First      time.Time `json:"first"`
	Last       time.Time `json:"last"`
	ByEvent    []count   `json:"by_event"`
	ByResource []count   `json:"by_resource"`
}

func main() {
	var inputPath string
	var asJSON bool
	flag.StringVar(&inputPath, "in", filepath.Join(config.DefaultDir(), "activity.jsonl"), "activity log path")
	flag.BoolVar(&asJSON, "json", false, "print the summary as JSON")
	flag.Parse()

	file, err := os.Open(inputPath)
	if err != nil {
		exit(err)
	}
	defer file.Close()

	rep, err := summarise(file)
	if err != nil {
		exit(fmt.Errorf("read %s: %w", inputPath, err))
	}
	rep.Source = inputPath
	if err := requireEvents(rep); err != nil {
		exit(fmt.Errorf("%s: %w", inputPath, err))
	}

	if asJSON {
		encoded, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			exit(fmt.Errorf("encode report: %w", err))
		}
		fmt.Println(string(encoded))
		return
	}
	printReport(os.Stdout, rep)
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "activity: %v\n", err)
	os.Exit(1)
}

func summarise(r io.Reader) (report, error) {
	var (
		rep        report
		sessions   = map[string]bool{}
		users      = map[string]bool{}
		byEvent    = map[string]*count{}
		byResource = map[string]*count{}
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rep.Lines++
		var ev event
		if err := json.Unmarshal([]byte(line), &ev); err != nil || ev.Event == "" {
			rep.Skipped++
			continue
		}
		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}
		if ev.UserID != "" {
			users[ev.UserID] = true
		}
		if !ev.Timestamp.IsZero() {
			if rep.First.IsZero() || ev.Timestamp.Before(rep.First) {
				rep.First = ev.Timestamp
			}
			if ev.Timestamp.After(rep.Last) {
				rep.Last = ev.Timestamp
			}
		}
		bad := failed(ev)
		bump(byEvent, ev.Event, bad)
		if ev.Resource != "" {
			bump(byResource, ev.Resource, bad)
		}
	}
	if err := scanner.Err(); err != nil {
		return report{}, err
	}
	rep.Sessions = len(sessions)
	for u := range users {
		rep.Users = append(rep.Users, u)
	}
	sort.Strings(rep.Users)
	rep.ByEvent = sorted(byEvent)
	rep.ByResource = sorted(byResource)
	return rep, nil
}

func failed(ev event) bool {
	outcome, ok := ev.Extra["outcome"]
	return ok && outcome != "ok"
}

func bump(m map[string]*count, key string, failed bool) {
	c, ok := m[key]
	if !ok {
		c = &count{Key: key}
		m[key] = c
	}
	c.Total++
	if failed {
		c.Fails++
	}
}

func sorted(m map[string]*count) []count {
	out := make([]count, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Key < out[j].Key
		}
		return out[i].Total > out[j].Total
	})
	return out
}

func printReport(w io.Writer, rep report) {
	fmt.Fprintf(w, "%s events in %s sessions", humanize.Comma(int64(rep.Lines-rep.Skipped)), humanize.Comma(int64(rep.Sessions)))
	if len(rep.Users) > 0 {
		fmt.Fprintf(w, " by %s", strings.Join(rep.Users, ", "))
	}
	fmt.Fprintln(w)
	if !rep.First.IsZero() {
		fmt.Fprintf(w, "from %s to %s (%s)\n",
			rep.First.Format(time.RFC3339), rep.Last.Format(time.RFC3339),
			humanize.RelTime(rep.First, rep.Last, "", ""))
	}
	if rep.Skipped > 0 {
		fmt.Fprintf(w, "%d unreadable lines skipped\n", rep.Skipped)
	}
	section(w, "by event", rep.ByEvent)
	section(w, "by resource", rep.ByResource)
}

func section(w io.Writer, title string, counts []count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, c := range counts {
		line := fmt.Sprintf("  %-20s %6s", c.Key, humanize.Comma(int64(c.Total)))
		if c.Fails > 0 {
			line += fmt.Sprintf("  (%d failed)", c.Fails)
		}
		fmt.Fprintln(w, line)
	}
}

var errEmpty = errors.New("no events")

// requireEvents reports logs without a single readable event.
func requireEvents(rep report) error {
	if rep.Lines-rep.Skipped == 0 {
		return errEmpty
	}
	return nil
}
