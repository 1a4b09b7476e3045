package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/N1c0zz/NeuraMind/internal/bootstrap"
	"github.com/N1c0zz/NeuraMind/internal/config"
	"github.com/N1c0zz/NeuraMind/internal/constant"
	"github.com/N1c0zz/NeuraMind/pkg/api"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	defer container.Logger.Sync()

	ctx := context.Background()
	ok := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	switch os.Args[1] {
	case "ping":
		if err := container.Client.Health(ctx); err != nil {
			fail.Printf("backend unreachable: %v\n", err)
			os.Exit(1)
		}
		ok.Println("backend is up")

	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		file := fs.String("file", "", "Path to the scanned document (photo or PDF)")
		title := fs.String("title", "", "Document title")
		lang := fs.String("lang", "", "OCR language code (defaults to the first configured one)")
		fs.Parse(os.Args[2:])

		result, err := upload(ctx, container, *file, *title, *lang)
		if err != nil {
			fail.Printf("%s: %v\n", constant.MessageUploadError, err)
			os.Exit(1)
		}
		ok.Printf("%s (item %s, %d chunks)\n", constant.MessageUploadSuccess, result.ItemID, result.ChunksCount)

	case "list":
		docs, err := container.Documents.List(ctx, cfg.API.DefaultUserID)
		if err != nil {
			fail.Printf("could not list documents: %v\n", err)
			os.Exit(1)
		}
		if len(docs) == 0 {
			fmt.Println(constant.MessageDocumentsNone)
			return
		}
		for _, d := range docs {
			line := fmt.Sprintf("%s  %-30s  %s  %d chunks", d.ID, d.Title, d.Mime, d.ChunkCount)
			if !d.UploadedAt.IsZero() {
				line += "  " + d.UploadedAt.Format("2006-01-02 15:04")
			}
			fmt.Println(line)
		}

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		id := fs.String("id", "", "Item id to delete")
		fs.Parse(os.Args[2:])
		if *id == "" {
			fail.Println("missing -id")
			os.Exit(2)
		}
		if err := container.Documents.Delete(ctx, cfg.API.DefaultUserID, *id); err != nil {
			fail.Printf("%s: %v\n", constant.MessageDeleteError, err)
			os.Exit(1)
		}
		ok.Println(constant.MessageDeleteSuccess)

	default:
		usage()
		os.Exit(2)
	}
}

func upload(ctx context.Context, c *bootstrap.Container, path, title, lang string) (*api.UploadResult, error) {
	if path == "" {
		return nil, fmt.Errorf("missing -file")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return c.Documents.Upload(ctx, api.UploadInput{
		File:      f,
		Filename:  filepath.Base(path),
		SizeBytes: info.Size(),
		Title:     title,
		UserID:    c.Config.API.DefaultUserID,
		Language:  lang,
	})
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: docs <command> [flags]

Commands:
  ping                       check backend health
  upload -file F -title T    upload a scanned document
  list                       list your documents
  delete -id ITEM            delete a document`)
}
