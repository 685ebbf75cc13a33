package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/quizdeck/internal/admin/cli"
)

func main() {
	root := cli.NewRootCommand(cli.PostgresBackend())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
