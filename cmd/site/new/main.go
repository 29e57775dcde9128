package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/brandall10/brandall10.github.io/cmd/site/internal/bootstrap"
	sitecmd "github.com/brandall10/brandall10.github.io/internal/commands/site"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runNew(os.Args[1:]); err != nil {
		log.Fatalf("site new: %v", err)
	}
}

func runNew(args []string) error {
	fs := flag.NewFlagSet("site-new", flag.ExitOnError)
	source := fs.String("source", ".", "Site source directory")
	configPath := fs.String("config", "_config.yml", "Site config path relative to the source directory")
	title := fs.String("title", "", "Title for the new post")
	categories := fs.String("categories", "", "Comma separated category list")
	publish := fs.Bool("publish", false, "Publish immediately instead of leaving a draft")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*title) == "" {
		return fmt.Errorf("-title is required")
	}

	module, err := moduleBuilder(bootstrap.Options{
		Source:     *source,
		ConfigPath: *configPath,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()

	ctx := context.Background()

	var draftPath string
	create := sitecmd.CreateDraftCommand{
		Title:        *title,
		Categories:   bootstrap.SplitCategories(*categories),
		PathCallback: func(p string) { draftPath = p },
	}
	if err := module.Handlers.CreateDraft.Execute(ctx, create); err != nil {
		return fmt.Errorf("execute create draft command: %w", err)
	}
	fmt.Fprintf(os.Stdout, "created %s\n", draftPath)

	if !*publish {
		return nil
	}

	slug := strings.TrimSuffix(path.Base(draftPath), path.Ext(draftPath))
	var postPath string
	promote := sitecmd.PublishDraftCommand{
		Slug:         slug,
		PathCallback: func(p string) { postPath = p },
	}
	if err := module.Handlers.PublishDraft.Execute(ctx, promote); err != nil {
		return fmt.Errorf("execute publish draft command: %w", err)
	}
	fmt.Fprintf(os.Stdout, "published %s\n", postPath)
	return nil
}
