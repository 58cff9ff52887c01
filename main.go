package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/lotas/tabsammlung/internal/alarm"
	"github.com/lotas/tabsammlung/internal/applog"
	"github.com/lotas/tabsammlung/internal/firefox"
	"github.com/lotas/tabsammlung/internal/organizer"
	"github.com/lotas/tabsammlung/internal/server"
	"github.com/lotas/tabsammlung/internal/storage"
	"github.com/lotas/tabsammlung/internal/titles"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "sweep":
			runSweep(os.Args[2:])
			return
		case "categories":
			runCategories(os.Args[2:])
			return
		case "profiles":
			runProfiles()
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}
	printHelp()
	os.Exit(2)
}

func openStore(path string) *storage.Store {
	resolved := path
	if resolved == "" {
		resolved = os.Getenv("TABSAMMLUNG_DB")
	}
	if resolved == "" {
		def, err := storage.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
			os.Exit(1)
		}
		resolved = def
	}

	store, err := storage.Open(resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}

	applog.Init(filepath.Dir(resolved))
	return store
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path (default: ~/.local/share/tabsammlung)")
	port := fs.Int("port", defaultPort(), "WebSocket port for the extension bridge")
	checkInterval := fs.Duration("check-interval", time.Minute, "Expiration check interval (0 disables the periodic alarm)")
	fs.Parse(args)

	store := openStore(*dbPath)
	defer store.Close()
	defer applog.Close()

	org := organizer.New(store, organizer.WithTitleFunc(titles.Resolver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup migration: backfill durable domain names. Idempotent.
	if err := org.MigrateParentCategories(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating parent categories: %v\n", err)
		os.Exit(1)
	}

	al := alarm.New(*checkInterval, func(ctx context.Context) {
		if _, err := org.CheckExpired(ctx, ""); err != nil {
			applog.Error("expiry.check", err)
		}
	})
	go al.Start(ctx)

	srv := server.New(*port, org, al.Status)
	fmt.Printf("Listening on ws://127.0.0.1:%d\n", *port)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	profileName := fs.String("profile", os.Getenv("TABSAMMLUNG_PROFILE"), "Firefox profile name")
	fs.Parse(args)

	profiles, err := firefox.DiscoverProfiles(firefox.ProfilesDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering Firefox profiles: %v\n", err)
		os.Exit(1)
	}
	profile, err := firefox.PickProfile(profiles, *profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tabs, err := firefox.ReadSessionTabs(profile.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading session: %v\n", err)
		os.Exit(1)
	}

	store := openStore(*dbPath)
	defer store.Close()
	defer applog.Close()

	org := organizer.New(store)
	res, err := org.SaveTabs(context.Background(), tabs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving tabs: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d tabs from %q: %d saved across %d groups, %d skipped\n",
		len(tabs), profile.Name, res.Added, res.Groups, res.Skipped)
}

func runSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	period := fs.String("period", "", "Retention period override (e.g. 7days; default: stored setting)")
	fs.Parse(args)

	store := openStore(*dbPath)
	defer store.Close()
	defer applog.Close()

	org := organizer.New(store)
	res, err := org.CheckExpired(context.Background(), *period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if res.Disabled {
		fmt.Println("Expiration disabled (period: never)")
		return
	}
	fmt.Printf("Checked %d groups, evicted %d\n", res.Checked, res.Evicted)
}

func runCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	fs.Parse(args)

	store := openStore(*dbPath)
	defer store.Close()
	defer applog.Close()

	cats, err := store.LoadParentCategories(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(cats) == 0 {
		fmt.Println("No parent categories.")
		return
	}
	for _, c := range cats {
		fmt.Printf("%s (%d groups)\n", c.Name, len(c.Domains))
		for _, d := range c.DomainNames {
			fmt.Printf("  %s\n", d)
		}
	}
}

func runProfiles() {
	profiles, err := firefox.DiscoverProfiles(firefox.ProfilesDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		fmt.Println("No Firefox profiles with session data found.")
		return
	}
	for _, p := range profiles {
		marker := " "
		if p.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s\n", marker, p.Name, p.Path)
	}
}

func defaultPort() int {
	if v := os.Getenv("TABSAMMLUNG_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
	}
	return 19292
}

func printHelp() {
	fmt.Print(`tabsammlung — persisted, domain-grouped tab collections

Usage:
  tabsammlung serve [-db path] [-port n] [-check-interval d]
  tabsammlung import [-db path] [-profile name]
  tabsammlung sweep [-db path] [-period label]
  tabsammlung categories [-db path]
  tabsammlung profiles

Environment:
  TABSAMMLUNG_DB       database path
  TABSAMMLUNG_PORT     websocket port for serve
  TABSAMMLUNG_PROFILE  Firefox profile name for import

Retention labels:
  30sec 1min 1hour 1day 7days 14days 30days 180days 365days never
`)
}
