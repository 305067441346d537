// Command studyfrogctl is a terminal driver for a rehearsal run: list the
// stacks on disk, then run a session against the core the way a UI would,
// grading each item from the keyboard.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/studyfrog/core/internal/config"
	"github.com/studyfrog/core/internal/dispatch"
	"github.com/studyfrog/core/internal/model"
	"github.com/studyfrog/core/internal/rehearsal"
	"github.com/studyfrog/core/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Bootstrap configuration file")
	action := flag.String("action", "", "Action to perform: list-stacks, run")
	stacks := flag.String("stacks", "", "Comma-separated stack keys (run action)")
	difficulty := flag.String("difficulty", "", "Difficulty key (e.g. DIFFICULTY_0) to filter items by (run action)")
	priority := flag.String("priority", "", "Priority key (e.g. PRIORITY_2) to filter items by (run action)")
	shuffle := flag.Bool("shuffle", false, "Randomize item order (run action)")
	timeLimit := flag.Int("time-limit", 0, "Time limit in minutes, 0 disables it (run action)")
	flag.Parse()

	if *action == "" {
		fmt.Fprintf(os.Stderr, "Usage: studyfrogctl -action <action> [flags]\n")
		fmt.Fprintf(os.Stderr, "Actions: list-stacks, run\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	seedOverrides := storage.SeedOverrides{
		DefaultDifficulty: cfg.Seed.DefaultDifficulty,
		DefaultPriority:   cfg.Seed.DefaultPriority,
	}
	if err := store.Bootstrap(seedOverrides); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed storage: %v\n", err)
		os.Exit(1)
	}

	d := dispatch.New()
	storage.RegisterHandlers(d, store)

	switch *action {
	case "list-stacks":
		listStacks(d)
	case "run":
		if *stacks == "" {
			fmt.Fprintln(os.Stderr, "-stacks is required for the run action")
			os.Exit(1)
		}
		runRehearsal(store, d, strings.Split(*stacks, ","), *difficulty, *priority, *shuffle, *timeLimit)
	default:
		fmt.Fprintf(os.Stderr, "Unknown action: %s\n", *action)
		os.Exit(1)
	}
}

// listStacks dispatches the storage front door's FILTER_STACKS event — the
// same path a UI or bridged client would use — rather than reading
// *storage.Store directly.
func listStacks(d *dispatch.Dispatcher) {
	resp := d.Dispatch(storage.EventFilter(model.TagStack), dispatch.Global, map[string]any{
		"predicate": map[string]any{},
	})
	if resp.HasErrors() {
		fmt.Fprintln(os.Stderr, "failed to list stacks")
		os.Exit(1)
	}

	for _, recs := range resp {
		for _, rec := range recs {
			list, ok := rec.Result.([]model.Record)
			if !ok {
				continue
			}
			for _, s := range list {
				fmt.Printf("%s  %s\n", s.Metadata.Key, s.GetString("name"))
			}
		}
	}
}

func runRehearsal(store *storage.Store, d *dispatch.Dispatcher, stackKeys []string, difficulty, priority string, shuffle bool, timeLimitMinutes int) {
	engine := rehearsal.New(store, d)
	engine.RegisterHandlers()

	form := rehearsal.SetupForm{
		Stacks:                        trimAll(stackKeys),
		Difficulty:                    difficulty,
		Priority:                      priority,
		ItemOrderRandomizationEnabled: shuffle,
		TimeCounterEnabled:            timeLimitMinutes > 0,
		TimeLimitEnabled:              timeLimitMinutes > 0,
		TimeLimitMinutes:              timeLimitMinutes,
	}

	var lastItem model.Record
	d.Subscribe(rehearsal.EventLoadItem, func(payload map[string]any) (any, error) {
		if item, ok := payload["item"].(model.Record); ok {
			lastItem = item
		}
		return true, nil
	}, dispatch.Global, true, 0)

	if _, err := engine.Start(form); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start rehearsal run: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Commands: [n]ext  [p]revious  [e]asy  [m]edium  [h]ard  [f]inish  [c]ancel  [q]uit")

	for {
		printItem(lastItem)
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			engine.Cancel()
			return
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "n":
			if err := engine.Next(); err != nil {
				fmt.Fprintf(os.Stderr, "next: %v\n", err)
			}
		case "p":
			if err := engine.Previous(); err != nil {
				fmt.Fprintf(os.Stderr, "previous: %v\n", err)
			}
		case "e":
			gradeOrReport(engine, "easy")
		case "m":
			gradeOrReport(engine, "medium")
		case "h":
			gradeOrReport(engine, "hard")
		case "f":
			if err := engine.Finish(); err != nil {
				fmt.Fprintf(os.Stderr, "finish: %v\n", err)
			}
			fmt.Println("Run finished.")
			return
		case "c", "q":
			if err := engine.Cancel(); err != nil {
				fmt.Fprintf(os.Stderr, "cancel: %v\n", err)
			}
			fmt.Println("Run cancelled.")
			return
		default:
			fmt.Println("unrecognized command")
		}
	}
}

func gradeOrReport(engine *rehearsal.Engine, level string) {
	if err := engine.Grade(level); err != nil {
		fmt.Fprintf(os.Stderr, "grade %s: %v\n", level, err)
	}
}

func printItem(item model.Record) {
	if item.Metadata.Key == "" {
		return
	}
	fmt.Printf("\n[%s] %s\n", item.Tag(), item.Metadata.Key)
	if q := item.GetString("question"); q != "" {
		fmt.Println(q)
	}
	if f := item.GetString("front"); f != "" {
		fmt.Println(f)
	}
}

func trimAll(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
