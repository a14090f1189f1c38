package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/executor"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/httpclient"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/service"
	"github.com/mohammed-shakir/ogc-gateway/internal/logger"
)

var (
	urlFlag = &cli.StringFlag{
		Name:     "url",
		Aliases:  []string{"u"},
		Usage:    "CSW or SOS endpoint URL",
		Required: true,
	}
	providerFlag = &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   "server dialect: default, pycsw or geoserver",
		Value:   "default",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "HTTP client timeout (e.g. 30s, 1m)",
		Value:   30 * time.Second,
	}
	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "print the built request instead of sending it",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "log upstream calls to stderr",
	}
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "ogcctl",
		Usage:     "Build and send OGC CSW/SOS requests",
		Writer:    out,
		ErrWriter: errOut,
		Flags:     []cli.Flag{urlFlag, providerFlag, timeoutFlag, dryRunFlag, verboseFlag},
		Commands: []*cli.Command{
			newRecordsCommand(),
			newObservationsCommand(),
			newCapabilitiesCommand(),
		},
	}
}

// target reads the flags shared by every subcommand.
func target(cmd *cli.Command) (string, model.Provider, error) {
	endpoint := cmd.String(urlFlag.Name)
	if endpoint == "" {
		return "", 0, fmt.Errorf("flag --url is required")
	}
	p, err := model.ParseProvider(cmd.String(providerFlag.Name))
	if err != nil {
		return "", 0, err
	}
	return endpoint, p, nil
}

func newService(cmd *cli.Command) (*service.Service, error) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cmd.Bool(verboseFlag.Name) {
		zl := logger.Build(logger.Config{Level: "debug", Console: true, Component: "ogcctl"}, cmd.Root().ErrWriter)
		log = logger.NewSlog(&zl)
	}
	client := httpclient.NewOutbound(cmd.Duration(timeoutFlag.Name))
	return service.New(executor.New(log, client), service.WithLogger(log))
}
