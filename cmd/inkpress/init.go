package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/inkpress/inkpress"
	"github.com/inkpress/inkpress/content"
)

const sampleBody = `Welcome to your new site.

This article lives as a plain Markdown file with a front-matter block.
Edit it with any text editor, or manage it with the inkpress CLI. The
SQLite databases next to it are derived data; "inkpress reindex" rebuilds
them from the files at any time.
`

// cmdInit scaffolds a project: config file, content directory, and one
// published sample article. The config write is atomic so a crash cannot
// leave a half-written file behind; content records stay ordinary writes.
func cmdInit(workDir string, cfg inkpress.Config) int {
	cfgPath := filepath.Join(workDir, inkpress.ConfigFileName)

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(os.Stderr, "inkpress: %s already exists\n", cfgPath)

		return 1
	}

	formatted, err := inkpress.FormatConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	if err := atomic.WriteFile(cfgPath, strings.NewReader(formatted)); err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: write config: %v\n", err)

		return 1
	}

	if !filepath.IsAbs(cfg.ContentDir) {
		cfg.ContentDir = filepath.Join(workDir, cfg.ContentDir)
	}

	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(workDir, cfg.DataDir)
	}

	if err := os.MkdirAll(filepath.Join(cfg.ContentDir, "articles"), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: create content dir: %v\n", err)

		return 1
	}

	engine, err := inkpress.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: %v\n", err)

		return 1
	}

	defer func() { _ = engine.Close() }()

	sample := &content.Article{
		Title:     "Hello World",
		Body:      sampleBody,
		Category:  "general",
		Tags:      []string{"welcome"},
		Published: true,
	}

	if err := engine.CreateArticle(sample); err != nil {
		fmt.Fprintf(os.Stderr, "inkpress: create sample article: %v\n", err)

		return 1
	}

	fmt.Printf("initialized: %s, %s, %s\n", cfgPath, cfg.ContentDir, cfg.DataDir)

	return 0
}
