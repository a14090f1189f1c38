package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/service"
)

// execute prints req under --dry-run, otherwise sends it and prints the reply body.
func execute(ctx context.Context, cmd *cli.Command, svc *service.Service, req *ogc.Request) error {
	out := cmd.Root().Writer
	if cmd.Bool(dryRunFlag.Name) {
		return printRequest(out, req)
	}
	resp, err := svc.Call(ctx, req)
	if err != nil {
		var se *ogc.ServiceException
		if errors.As(err, &se) {
			return fmt.Errorf("service exception %s (locator %q): %s", se.Code, se.Locator, se.Message)
		}
		return err
	}
	_, err = fmt.Fprintln(out, resp.Body)
	return err
}

func printRequest(w io.Writer, req *ogc.Request) error {
	if _, err := fmt.Fprintln(w, req.String()); err != nil {
		return err
	}
	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range req.Header[k] {
			if _, err := fmt.Fprintf(w, "%s: %s\n", k, v); err != nil {
				return err
			}
		}
	}
	if len(req.Body) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n", req.Body)
	return err
}
