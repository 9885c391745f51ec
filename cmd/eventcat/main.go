package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iliyamo/eventcat/internal/cli"
	"github.com/iliyamo/eventcat/internal/client"
)

func main() {
	apiBase := flag.String("api-base", "", "Event API base URL (env: APP_WEB_SOCKET)")
	flag.Usage = func() { cli.Usage(os.Stderr) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.Usage(os.Stderr)
		os.Exit(2)
	}

	prompt := &cli.ReadlinePrompter{Stdin: os.Stdin, Stdout: os.Stdout}
	ctx := cli.Context{
		Client: &client.Client{BaseURL: cli.ResolveAPIBase(*apiBase)},
		Out:    os.Stdout,
		Err:    os.Stderr,
		Prompt: prompt,
	}

	err := cli.Dispatch(ctx, args)
	_ = prompt.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
