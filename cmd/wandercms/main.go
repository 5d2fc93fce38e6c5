package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wandercms/wandercms"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "import-heroes":
		if err := runImportHeroes(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "seed-page-heroes":
		if err := runSeedPageHeroes(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "create-user":
		if err := runCreateUser(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("wandercms %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	cfg := wandercms.LoadConfig()
	app := wandercms.New(cfg, defaultViews())
	defer app.Close()
	return app.Start()
}

// openStore wires a store and media store from the environment, shared by the
// offline subcommands.
func openStore() (*wandercms.Store, *wandercms.MediaStore, error) {
	cfg := wandercms.LoadConfig()
	logger := wandercms.NewLogger(cfg.LogLevel)
	store, err := wandercms.NewStore(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, err
	}
	media, err := wandercms.NewMediaStore(cfg.MediaRoot, logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, media, nil
}

func runImportHeroes(args []string) error {
	fs := flag.NewFlagSet("import-heroes", flag.ExitOnError)
	captionPrefix := fs.String("caption-prefix", "Hero Image", "prefix for generated captions")
	activate := fs.Bool("activate", false, "activate imported images")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: wandercms import-heroes <directory> [--caption-prefix P] [--activate]")
	}

	store, media, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := wandercms.ImportHeroImages(store, media, wandercms.HeroImportOptions{
		Dir:           fs.Arg(0),
		CaptionPrefix: *captionPrefix,
		Activate:      *activate,
	})
	if err != nil {
		return err
	}
	for _, line := range result.Report {
		fmt.Println(line)
	}
	fmt.Printf("imported %d hero images (%d skipped, %d failed)\n",
		result.Imported, result.Skipped, result.Failed)
	return nil
}

func runSeedPageHeroes() error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := wandercms.SeedPageHeroes(store)
	for _, line := range report {
		fmt.Println(line)
	}
	return err
}

func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	staff := fs.Bool("staff", false, "grant panel access")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: wandercms create-user <username> [--staff]")
	}
	username := fs.Arg(0)

	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.CreateUser(username, password, *staff)
	if err != nil {
		return err
	}
	role := "user"
	if user.IsStaff {
		role = "staff user"
	}
	fmt.Printf("created %s %q (id %d)\n", role, user.Username, user.ID)
	return nil
}

func printUsage() {
	fmt.Println(`wandercms - A travel/blog content engine built with Go, Echo, and templ

Usage:
  wandercms <command> [arguments]

Commands:
  serve                     Run the site and staff panel
  import-heroes <dir>       Bulk-import hero images from a directory
                            [--caption-prefix P] [--activate]
  seed-page-heroes          Create inactive page hero defaults
  create-user <username>    Create a panel user [--staff]
  version                   Print the wandercms version
  help                      Show this help message

Examples:
  wandercms serve
  wandercms import-heroes ./heroes --activate
  wandercms create-user editor --staff`)
}
