package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brandall10/brandall10.github.io/cmd/site/internal/bootstrap"
	sitecmd "github.com/brandall10/brandall10.github.io/internal/commands/site"
	"github.com/brandall10/brandall10.github.io/internal/server"
	"github.com/brandall10/brandall10.github.io/internal/watch"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runServe(ctx, os.Args[1:]); err != nil {
		log.Fatalf("site serve: %v", err)
	}
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("site-serve", flag.ExitOnError)
	source := fs.String("source", ".", "Site source directory")
	configPath := fs.String("config", "_config.yml", "Site config path relative to the source directory")
	out := fs.String("out", "_site", "Output directory for the generated site")
	addr := fs.String("addr", ":4000", "Address the preview server listens on")
	noWatch := fs.Bool("no-watch", false, "Disable source watching and rebuild on change")
	drafts := fs.Bool("drafts", false, "Include posts under _drafts")
	future := fs.Bool("future", false, "Include posts dated after the current time")
	logLevel := fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	logProvider := fs.String("log-provider", "", "Log provider (console or gologger)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		Source:      *source,
		ConfigPath:  *configPath,
		OutputDir:   *out,
		Addr:        *addr,
		Watch:       !*noWatch,
		LogLevel:    *logLevel,
		LogProvider: *logProvider,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()

	buildOpts := interfaces.BuildOptions{Drafts: *drafts, Future: *future}

	cmd := sitecmd.BuildSiteCommand{Drafts: *drafts, Future: *future}
	if err := module.Handlers.Build.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}

	if !*noWatch {
		// Watch-triggered rebuilds keep the same visibility switches as the
		// initial build so drafts do not vanish after the first edit.
		watcher, err := module.Module.Watcher(watch.WithBuildOptions(buildOpts))
		if err != nil {
			return fmt.Errorf("configure watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer watcher.Stop()
	}

	srv, err := module.Module.Server(server.WithBuildOptions(buildOpts))
	if err != nil {
		return fmt.Errorf("configure server: %w", err)
	}
	return srv.Serve(ctx)
}
