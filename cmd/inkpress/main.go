// Command inkpress manages a flat-file article store from the terminal:
// scaffolding, listing, creating, searching, and reindexing content.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/inkpress/inkpress"
	"github.com/inkpress/inkpress/content"
	"github.com/inkpress/inkpress/storage"
)

const usage = `inkpress - flat-file content engine

Usage:
  inkpress [flags] <command> [args]

Commands:
  init              Scaffold a config file, content directory, and sample article
  list              List published articles (--all for drafts and scheduled)
  show <slug>       Print one article
  new               Create an article (--title required)
  search <query>    Search published articles
  tags              List all tags
  categories        List all categories
  recent [n]        List the n most recently published articles (default 5)
  reindex           Rebuild the metadata index from the content files
  audit             Show recent content actions
  shell             Interactive session

Flags:
  -c, --config string   Config file path (default "inkpress.json" in the working dir)
  -C, --dir string      Working directory (default ".")
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("inkpress", flag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	configPath := flags.StringP("config", "c", "", "config file path")
	workDir := flags.StringP("dir", "C", ".", "working directory")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()

		return 2
	}

	command, cmdArgs := rest[0], rest[1:]

	cfg, err := inkpress.LoadConfig(*workDir, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	if command == "init" {
		return cmdInit(*workDir, cfg)
	}

	engine, err := inkpress.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	defer func() { _ = engine.Close() }()

	switch command {
	case "list":
		return cmdList(engine, cmdArgs)
	case "show":
		return cmdShow(engine, cmdArgs)
	case "new":
		return cmdNew(engine, cmdArgs)
	case "search":
		return cmdSearch(engine, cmdArgs)
	case "tags":
		return cmdTags(engine)
	case "categories":
		return cmdCategories(engine)
	case "recent":
		return cmdRecent(engine, cmdArgs)
	case "reindex":
		return cmdReindex(engine)
	case "audit":
		return cmdAudit(engine)
	case "shell":
		return runShell(engine)
	default:
		fmt.Fprintf(os.Stderr, "inkpress: unknown command %q\n", command)
		flags.Usage()

		return 2
	}
}

func cmdList(engine *inkpress.Engine, args []string) int {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)
	all := flags.Bool("all", false, "include drafts and scheduled articles")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	repo := engine.Articles()

	var (
		articles []*content.Article
		err      error
	)

	if *all {
		articles, err = repo.All()
	} else {
		articles, err = repo.Published()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	printArticleTable(articles)

	return 0
}

func cmdShow(engine *inkpress.Engine, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: inkpress show <slug>")

		return 2
	}

	a, err := engine.Articles().Find(args[0])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "inkpress: no article %q\n", args[0])

			return 1
		}

		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	printArticle(a)

	return 0
}

func cmdNew(engine *inkpress.Engine, args []string) int {
	flags := flag.NewFlagSet("new", flag.ContinueOnError)

	title := flags.String("title", "", "article title (required)")
	slug := flags.String("slug", "", "explicit slug (default derived from title)")
	author := flags.String("author", "", "author name")
	category := flags.String("category", "", "category")
	tags := flags.StringSlice("tags", nil, "comma-separated tags")
	body := flags.String("body", "", "article body (default read from stdin)")
	publish := flags.Bool("publish", false, "publish immediately")
	featured := flags.Bool("featured", false, "mark as featured")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *title == "" {
		fmt.Fprintln(os.Stderr, "inkpress: --title is required")

		return 2
	}

	text := *body

	if text == "" {
		data, err := readAllStdin()
		if err != nil {
			fmt.Fprintf(os.Stderr, "inkpress: read body: %v\n", err)

			return 1
		}

		text = data
	}

	a := &content.Article{
		Slug:      *slug,
		Title:     *title,
		Body:      text,
		Author:    *author,
		Category:  *category,
		Tags:      *tags,
		Published: *publish,
		Featured:  *featured,
	}

	if err := engine.CreateArticle(a); err != nil {
		if errors.Is(err, content.ErrDuplicateKey) {
			fmt.Fprintf(os.Stderr, "inkpress: slug %q already exists, pick another\n", a.Slug)

			return 1
		}

		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	fmt.Printf("created %s\n", a.Slug)

	return 0
}

func cmdSearch(engine *inkpress.Engine, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: inkpress search <query>")

		return 2
	}

	results, err := engine.Articles().Search(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	if len(results) == 0 {
		fmt.Println("no matches")

		return 0
	}

	printArticleTable(results)

	return 0
}

func cmdTags(engine *inkpress.Engine) int {
	tags, err := engine.Articles().Tags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	for _, t := range tags {
		fmt.Println(t)
	}

	return 0
}

func cmdCategories(engine *inkpress.Engine) int {
	categories, err := engine.Articles().Categories()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	for _, c := range categories {
		fmt.Println(c)
	}

	return 0
}

func cmdRecent(engine *inkpress.Engine, args []string) int {
	n := 5

	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n < 1 {
			fmt.Fprintln(os.Stderr, "usage: inkpress recent [n]")

			return 2
		}
	}

	articles, err := engine.Articles().Recent(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	printArticleTable(articles)

	return 0
}

func cmdReindex(engine *inkpress.Engine) int {
	if err := engine.Articles().Reindex(); err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	fmt.Println("index rebuilt")

	return 0
}

func cmdAudit(engine *inkpress.Engine) int {
	entries, err := engine.AuditTrail(20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	for _, e := range entries {
		fmt.Printf("%s  %-6s  %s\n", e.At, e.Action, e.Slug)
	}

	return 0
}

func printArticleTable(articles []*content.Article) {
	if len(articles) == 0 {
		fmt.Println("no articles")

		return
	}

	for _, a := range articles {
		status := "draft"

		switch {
		case a.Published && a.PublishedAt != "":
			status = a.PublishedAt
		case a.Published:
			status = "published"
		}

		fmt.Printf("%-30s  %-10s  %-12s  %s\n", a.Slug, status, a.Category, a.Title)
	}
}

func printArticle(a *content.Article) {
	fmt.Printf("title:     %s\n", a.Title)
	fmt.Printf("slug:      %s\n", a.Slug)

	if a.Author != "" {
		fmt.Printf("author:    %s\n", a.Author)
	}

	if a.Category != "" {
		fmt.Printf("category:  %s\n", a.Category)
	}

	if len(a.Tags) > 0 {
		fmt.Printf("tags:      %s\n", strings.Join(a.Tags, ", "))
	}

	fmt.Printf("published: %t", a.Published)

	if a.PublishedAt != "" {
		fmt.Printf(" (%s)", a.PublishedAt)
	}

	fmt.Printf("\nreading:   %d min\n", a.ReadingTime())
	fmt.Printf("\n%s\n", a.Body)
}

func readAllStdin() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}

	// Only read a piped body; an interactive terminal means no body.
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
