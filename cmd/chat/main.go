package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/N1c0zz/NeuraMind/internal/bootstrap"
	"github.com/N1c0zz/NeuraMind/internal/config"
	"github.com/N1c0zz/NeuraMind/internal/tracer"
	"github.com/N1c0zz/NeuraMind/pkg/conversation"
	"github.com/N1c0zz/NeuraMind/pkg/store"
)

func main() {
	cfg := config.Load()

	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	defer container.Logger.Sync()

	shutdownTracer := tracer.InitTracer("neuramind-chat", cfg.Trace.Endpoint)
	defer shutdownTracer(context.Background())

	conv := container.NewConversation()

	assistant := color.New(color.FgCyan)
	userPrompt := color.New(color.FgGreen, color.Bold)
	errOut := color.New(color.FgRed)

	for _, m := range conv.Messages() {
		assistant.Println(m.Text)
	}
	fmt.Println(`Type a question, "/sources" for the last answer's sources, "/quit" to exit.`)

	var lastSources []store.Match

	scanner := bufio.NewScanner(os.Stdin)
	for {
		userPrompt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			return
		case "/sources":
			printSources(lastSources)
			continue
		}

		done, ok := conv.Submit(context.Background(), line)
		if !ok {
			continue
		}
		reply := <-done

		switch reply.Status {
		case conversation.StatusErrored:
			errOut.Println(reply.Text)
		default:
			assistant.Println(reply.Text)
			lastSources = reply.Sources
			if len(lastSources) > 0 {
				fmt.Printf("(%d sources, /sources to inspect)\n", len(lastSources))
			}
		}
	}
}

func printSources(sources []store.Match) {
	if len(sources) == 0 {
		fmt.Println("No sources for the last answer.")
		return
	}
	for i, s := range sources {
		fmt.Printf("%d. %s (similarity %.1f%%)\n", i+1, s.Title(), s.Score*100)
	}
}
