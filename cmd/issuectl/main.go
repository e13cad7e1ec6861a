// Command issuectl is a read-only inspection tool for the newsletter API.
// With no arguments it lists all issues; "issuectl <issue-id>" prints one
// issue's topic/link tree; "issuectl -unassigned" prints the unassigned
// link pool.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/graphql-hive/graphql-weekly/internal/adapter/graphql"
	"github.com/graphql-hive/graphql-weekly/internal/app"
	"github.com/graphql-hive/graphql-weekly/internal/auth"
	"github.com/graphql-hive/graphql-weekly/internal/config"
	"github.com/graphql-hive/graphql-weekly/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log, os.Stderr)

	var session *auth.Session
	if cfg.Auth.Token != "" {
		session, err = auth.NewSession(cfg.Auth.Token)
		if err != nil {
			logger.Error("invalid curator token", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	httpClient := &http.Client{Timeout: cfg.Collaborator.Timeout}
	client, err := graphql.New(logger, cfg.Collaborator.Endpoint, httpClient, session)
	if err != nil {
		logger.Error("create client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Collaborator.Timeout)
	defer cancel()

	switch {
	case len(os.Args) > 1 && os.Args[1] == "-unassigned":
		err = printUnassigned(ctx, client)
	case len(os.Args) > 1:
		err = printIssue(ctx, client, os.Args[1])
	default:
		err = printIssues(ctx, client)
	}
	if err != nil {
		logger.Error("issuectl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printIssues(ctx context.Context, client *graphql.Client) error {
	issues, err := client.AllIssues(ctx)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		state := "draft"
		if issue.Published {
			state = "published"
		}
		fmt.Printf("#%d  %s  [%s]  %d topics\n", issue.Number, issue.Title, state, len(issue.Topics))
	}
	return nil
}

func printIssue(ctx context.Context, client *graphql.Client, id string) error {
	issue, err := client.IssueByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("#%d  %s\n", issue.Number, issue.Title)
	for _, topic := range issue.Topics {
		fmt.Printf("  %d. %s\n", topic.Position+1, topic.Title)
		for _, link := range topic.Links {
			fmt.Printf("     - %s  %s\n", linkTitle(link), link.URL)
		}
	}
	return nil
}

func printUnassigned(ctx context.Context, client *graphql.Client) error {
	links, err := client.UnassignedLinks(ctx)
	if err != nil {
		return err
	}
	for _, link := range links {
		fmt.Printf("- %s  %s\n", linkTitle(link), link.URL)
	}
	return nil
}

func linkTitle(link *domain.Link) string {
	if link.Title != "" {
		return link.Title
	}
	return "(untitled)"
}
