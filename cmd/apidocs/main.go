package main

import (
	"fmt"
	"os"

	"github.com/mediajel/apidocs/internal/app"
	"github.com/mediajel/apidocs/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opened *app.App
	defer func() {
		if opened != nil {
			if err := opened.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}()

	root := cli.NewRootCmd(func(configFile string) (*app.App, error) {
		a, err := app.Bootstrap(configFile, os.Stderr)
		if err != nil {
			return nil, err
		}
		opened = a
		return a, nil
	})
	return root.Execute()
}
