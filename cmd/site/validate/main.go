package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/brandall10/brandall10.github.io/cmd/site/internal/bootstrap"
	sitecmd "github.com/brandall10/brandall10.github.io/internal/commands/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runValidate(os.Args[1:]); err != nil {
		log.Fatalf("site validate: %v", err)
	}
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("site-validate", flag.ExitOnError)
	source := fs.String("source", ".", "Site source directory")
	configPath := fs.String("config", "_config.yml", "Site config path relative to the source directory")
	drafts := fs.Bool("drafts", true, "Validate posts under _drafts as well")
	future := fs.Bool("future", true, "Validate future-dated posts as well")
	strict := fs.Bool("strict", false, "Exit non-zero when any issue is found")
	logLevel := fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	logProvider := fs.String("log-provider", "", "Log provider (console or gologger)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		Source:      *source,
		ConfigPath:  *configPath,
		LogLevel:    *logLevel,
		LogProvider: *logProvider,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()

	var issues []interfaces.ValidationIssue
	cmd := sitecmd.ValidateSiteCommand{
		Strict: *strict,
		Drafts: *drafts,
		Future: *future,
		IssueCallback: func(found []interfaces.ValidationIssue) {
			issues = found
		},
	}
	if err := module.Handlers.Validate.Execute(context.Background(), cmd); err != nil {
		for _, issue := range issues {
			fmt.Fprintf(os.Stdout, "issue: %s\n", issue.String())
		}
		return fmt.Errorf("execute validate command: %w", err)
	}

	for _, issue := range issues {
		fmt.Fprintf(os.Stdout, "issue: %s\n", issue.String())
	}
	if len(issues) == 0 {
		fmt.Fprintln(os.Stdout, "site validate: no issues found")
	} else {
		fmt.Fprintf(os.Stdout, "site validate: %d issue(s) found\n", len(issues))
	}
	return nil
}
