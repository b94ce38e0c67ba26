// Command odnsdev is a dev CLI for opendnsctl maintenance and debugging.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"

	browseropts "opendnsctl/internal/browser"
	"opendnsctl/internal/config"
	"opendnsctl/internal/diag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "bot-test":
		runBotTest()
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: odnsdev open <config|artifacts|state>")
			os.Exit(1)
		}
		runOpen(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: odnsdev <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  bot-test        Open bot.sannysoft.com to audit the browser fingerprint")
	fmt.Println("  open config     Open the config file in the default editor")
	fmt.Println("  open artifacts  Open the screenshots directory")
	fmt.Println("  open state      Open the per-user state directory")
}

func runBotTest() {
	log.Println("Opening bot.sannysoft.com with the run's browser options...")

	opts := browseropts.Options(false, "") // non-headless so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate("https://bot.sannysoft.com"),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		log.Fatalf("Failed to navigate: %v", err)
	}

	fmt.Println("Press Enter to close the browser...")
	fmt.Scanln()
}

func runOpen(target string) {
	var path string
	var err error

	switch target {
	case "config":
		path = config.DefaultConfigFile
	case "artifacts":
		path = diag.DefaultDir
	case "state":
		path, err = config.StateDir()
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Failed to get path: %v", err)
	}

	if err := browser.OpenFile(path); err != nil {
		log.Fatalf("Failed to open: %v", err)
	}
}
