package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charleschow/humanoid-referee/internal/core/display"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/history"

	_ "modernc.org/sqlite"
)

const matchesQuery = `SELECT m.match_id, m.game_type, m.red_team, m.blue_team, m.started_at,
	(SELECT COUNT(*) FROM match_events e WHERE e.match_id = m.match_id) AS events,
	(SELECT COUNT(*) FROM player_snapshots p WHERE p.match_id = m.match_id) AS snapshots
FROM matches m ORDER BY m.started_at DESC LIMIT ?`

func main() {
	dbPath := flag.String("db", "data/match_history.db", "path to history store")
	n := flag.Int("n", 10, "number of recent matches to list")
	matchID := flag.String("match", "", "show the events of one match")
	eventType := flag.String("type", "", "comma separated event types to keep (goal,throw_in,...)")
	player := flag.String("player", "", "show 1 Hz samples of one player, e.g. red:2")
	pretty := flag.Bool("pretty", false, "pretty-print JSON payloads")
	flag.Parse()

	if *matchID == "" {
		listMatches(*dbPath, *n)
		return
	}

	store, err := history.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	if *player != "" {
		printPlayer(store, *matchID, *player)
		return
	}
	printEvents(store, *matchID, *eventType, *pretty)
}

func listMatches(dbPath string, n int) {
	fmt.Println("=== Matches ===")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(10000)&mode=ro")
	if err != nil {
		fmt.Printf("  (cannot open %s: %v)\n", dbPath, err)
		return
	}
	defer db.Close()

	rows, err := db.Query(matchesQuery, n)
	if err != nil {
		fmt.Printf("  (query error: %v)\n", err)
		return
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "match\ttype\tred\tblue\tstarted\tevents\tsnapshots")
	fmt.Fprintln(w, strings.Repeat("----\t", 7))
	count := 0
	for rows.Next() {
		var id, typ, red, blue, started string
		var evts, snaps int
		if err := rows.Scan(&id, &typ, &red, &blue, &started, &evts, &snaps); err != nil {
			fmt.Fprintf(os.Stderr, "  scan error: %v\n", err)
			continue
		}
		count++
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n", id, typ, red, blue, started, evts, snaps)
	}
	w.Flush()
	if count == 0 {
		fmt.Println("(no data)")
	}
}

func printEvents(store *history.Store, matchID, typeFilter string, pretty bool) {
	var types []events.EventType
	for _, t := range strings.Split(typeFilter, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, events.EventType(t))
		}
	}

	rows, err := store.Events(matchID, types...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "events: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== Match %s: %d events ===\n", matchID, len(rows))
	for _, r := range rows {
		payload := string(r.Payload)
		if pretty {
			var buf bytes.Buffer
			if err := json.Indent(&buf, r.Payload, "", "  "); err == nil {
				payload = buf.String()
			}
		}
		fmt.Printf("[%s] %-18s %s\n", display.FormatTime(r.TimeMs/1000), r.Type, payload)
	}
}

func printPlayer(store *history.Store, matchID, player string) {
	color, numText, ok := strings.Cut(player, ":")
	number, err := strconv.Atoi(numText)
	if !ok || err != nil {
		fmt.Fprintf(os.Stderr, "bad -player %q (use red:2)\n", player)
		os.Exit(1)
	}

	rows, err := store.Snapshots(matchID, strings.ToLower(color), number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshots: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("(no data)")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "time\tx\ty\tz\tfallen\tasleep\tpenalized\tin_field\town_side")
	fmt.Fprintln(w, strings.Repeat("----\t", 9))
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			display.FormatTime(r.TimeMs/1000), r.Position[0], r.Position[1], r.Position[2],
			flag01(r.Fallen), flag01(r.Asleep), orDash(r.Penalized), flag01(r.InsideField), flag01(r.InsideOwnSide))
	}
	w.Flush()
}

func flag01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
