package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/ramkansal/contactcrawl/internal/output"
	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// colorEnabled is cleared by --no-color.
var colorEnabled = true

func printBanner() {
	fmt.Println(clr("cyan", "\n  CONTACTCRAWL"))
	fmt.Printf("  %s  %s\n", clr("dim", "Breadth-first email and contact crawler"), clr("dim", "v"+version))
	fmt.Printf("  %s\n", clr("dim", strings.Repeat("─", 58)))
}

// newProgressBar tracks scanned pages against the page budget.
func newProgressBar(max int) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(colorEnabled),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// printPage streams one scanned page and its contacts.
func printPage(page *plugin.PageResult, records []plugin.ContactRecord) {
	counts := ""
	if len(records) > 0 {
		counts = clr("dim", fmt.Sprintf("[emails:%d]", len(records)))
	}
	fmt.Printf("  %s %s %s\n", clr("green", "●"), page.URL, counts)
	for _, r := range records {
		fmt.Printf("      %s %s\n", clr("dim", "├─"), output.RecordLine(r))
	}
}

func printSummary(result *plugin.CrawlResult, outputPath string) {
	fmt.Println()
	fmt.Printf("  %s\n", strings.Repeat("─", 50))
	fmt.Printf("  %s Crawl complete\n", clr("green", "✓"))
	fmt.Printf("    Pages:    %s scanned, %s failed\n",
		clr("cyan", fmt.Sprintf("%d", result.PagesScanned)),
		clr("red", fmt.Sprintf("%d", result.PagesFailed)),
	)
	fmt.Printf("    Contacts: %s found in %s\n",
		clr("yellow", fmt.Sprintf("%d", len(result.Records))),
		output.FormatDuration(result.Duration),
	)
	if outputPath != "" && outputPath != output.Stdout {
		fmt.Printf("    Output:   %s\n", clr("green", outputPath))
	}
	fmt.Println()
}

func clr(color, text string) string {
	if !colorEnabled {
		return text
	}
	codes := map[string]string{
		"red":    "\033[31m",
		"green":  "\033[32m",
		"yellow": "\033[33m",
		"cyan":   "\033[36m",
		"dim":    "\033[2m",
		"bold":   "\033[1m",
		"reset":  "\033[0m",
	}
	c, ok := codes[color]
	if !ok {
		return text
	}
	return c + text + codes["reset"]
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\n  %s %s\n\n", clr("red", "ERROR:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}
