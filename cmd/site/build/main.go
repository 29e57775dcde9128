package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brandall10/brandall10.github.io/cmd/site/internal/bootstrap"
	sitecmd "github.com/brandall10/brandall10.github.io/internal/commands/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runBuild(os.Args[1:]); err != nil {
		log.Fatalf("site build: %v", err)
	}
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("site-build", flag.ExitOnError)
	source := fs.String("source", ".", "Site source directory")
	configPath := fs.String("config", "_config.yml", "Site config path relative to the source directory")
	out := fs.String("out", "_site", "Output directory for the generated site")
	drafts := fs.Bool("drafts", false, "Include posts under _drafts")
	future := fs.Bool("future", false, "Include posts dated after the current time")
	unpublished := fs.Bool("unpublished", false, "Include posts marked published: false")
	incremental := fs.Bool("incremental", false, "Skip sources unchanged since the previous build")
	clean := fs.Bool("clean", false, "Clear the output directory before building")
	baseURL := fs.String("base-url", "", "Override the configured site URL for this build")
	logLevel := fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	logProvider := fs.String("log-provider", "", "Log provider (console or gologger)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		Source:      *source,
		ConfigPath:  *configPath,
		OutputDir:   *out,
		LogLevel:    *logLevel,
		LogProvider: *logProvider,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()

	ctx := context.Background()

	if *clean {
		if err := module.Handlers.Clean.Execute(ctx, sitecmd.CleanSiteCommand{}); err != nil {
			return fmt.Errorf("execute clean command: %w", err)
		}
	}

	var result *interfaces.BuildResult
	cmd := sitecmd.BuildSiteCommand{
		Drafts:      *drafts,
		Future:      *future,
		Unpublished: *unpublished,
		Incremental: *incremental,
		BaseURL:     *baseURL,
		ResultCallback: func(envelope sitecmd.ResultEnvelope) {
			result = envelope.Result
		},
	}
	if err := module.Handlers.Build.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}

	if result == nil {
		fmt.Fprintln(os.Stdout, "site build completed")
		return nil
	}
	fmt.Fprintf(os.Stdout, "site build: %d rendered, %d copied, %d skipped in %s\n",
		result.Rendered, result.Copied, result.Skipped, result.Duration.Round(time.Millisecond))
	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stdout, "issue: %s\n", issue.String())
	}
	return nil
}
