package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pagelens/pagelens/internal/audit/domain"
	"github.com/pagelens/pagelens/internal/client"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Audit service base URL")
	wait := flag.Duration("wait", 2*time.Minute, "Maximum time to wait for the audit to finish")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: audit-cli [flags] <url>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	targetURL := flag.Arg(0)

	c := client.New(*server, client.Config{MaxWait: *wait})
	ctx := context.Background()

	auditID, err := c.Submit(ctx, targetURL)
	if err != nil {
		log.Fatalf("submit failed: %v", err)
	}
	fmt.Printf("Submitted audit %s for %s\n", auditID, targetURL)

	status, err := c.WaitForResult(ctx, auditID)
	if err != nil {
		log.Fatalf("polling failed: %v", err)
	}

	fmt.Println("\n=== Audit Summary ===")
	fmt.Printf("Audit ID: %s\n", status.AuditID)
	fmt.Printf("Status:   %s\n", status.Status)
	if status.Status == domain.StatusFailed {
		fmt.Printf("Error:    %s\n", status.Error)
		os.Exit(1)
	}

	if status.Score != nil {
		fmt.Printf("Score:    %d/100\n", *status.Score)
	}
	if status.Result != nil {
		fmt.Printf("Summary:  %s\n", status.Result.SummaryReasoning)
		fmt.Println("\nTop issues:")
		for i, issue := range status.Result.TopSevereIssues {
			fmt.Printf("  %d. [%s] %s\n", i+1, issue.Severity, issue.Title)
			fmt.Printf("     Evidence: %s\n", issue.Evidence)
			fmt.Printf("     Fix:      %s\n", issue.RecommendedFix)
		}
	}
}
