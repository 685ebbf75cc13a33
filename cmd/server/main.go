package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/quizdeck/internal/flagx"
	"github.com/dmitrijs2005/quizdeck/internal/server"
	"github.com/dmitrijs2005/quizdeck/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var opts []server.Option
	if inMemory(os.Args[1:]) {
		opts = append(opts, server.WithInMemoryStore())
	}

	app, err := server.NewApp(ctx, cfg, opts...)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// inMemory reports whether -in-memory was given.
func inMemory(args []string) bool {
	var v bool

	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&v, "in-memory", false, "keep all data in process memory")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-in-memory", "--in-memory"}))

	return v
}
