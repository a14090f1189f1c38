package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

func newRecordsCommand() *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "Run a CSW GetRecords query",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "result-type", Usage: "results or hits", Value: "results"},
			&cli.IntFlag{Name: "max-records", Usage: "maximum records to return", Value: 10},
			&cli.IntFlag{Name: "start-position", Usage: "1-based index of the first record"},
			&cli.StringFlag{Name: "anytext", Usage: "free text matched against any field"},
			&cli.StringFlag{Name: "bbox", Usage: "north,west,south,east[,epsg]"},
			&cli.StringFlag{Name: "sort", Usage: "default, date-asc or date-desc"},
			&cli.BoolFlag{Name: "get", Usage: "send as KVP GET (no filter)"},
		},
		Action: recordsAction,
	}
}

func recordsAction(ctx context.Context, cmd *cli.Command) error {
	endpoint, provider, err := target(cmd)
	if err != nil {
		return err
	}
	rt, err := model.ParseResultType(cmd.String("result-type"))
	if err != nil {
		return err
	}
	sort, err := model.ParseSortType(cmd.String("sort"))
	if err != nil {
		return err
	}
	filter := ogc.RecordsFilter{AnyText: cmd.String("anytext")}
	if raw := cmd.String("bbox"); raw != "" {
		bb, err := model.ParseBBox(raw)
		if err != nil {
			return fmt.Errorf("invalid --bbox: %w", err)
		}
		filter.BBox = &bb
	}
	q := model.RecordsQuery{
		Endpoint:      endpoint,
		Provider:      provider,
		ResultType:    rt,
		MaxRecords:    cmd.Int("max-records"),
		StartPosition: cmd.Int("start-position"),
		Filter:        filter.Encode(),
		Sort:          sort,
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	build := svc.BuildRecords
	if cmd.Bool("get") {
		if q.Filter != "" {
			return fmt.Errorf("--anytext and --bbox cannot be sent with --get")
		}
		build = svc.BuildRecordsGet
	}
	req, err := build(q)
	if err != nil {
		return err
	}
	return execute(ctx, cmd, svc, req)
}

func newObservationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "observations",
		Usage: "Run a SOS GetObservation query",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feature", Usage: "featureOfInterest identifier"},
			&cli.TimestampFlag{
				Name:   "begin",
				Usage:  "start of the phenomenon time range (RFC3339)",
				Config: cli.TimestampConfig{Layouts: []string{time.RFC3339}},
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "end of the phenomenon time range (RFC3339)",
				Config: cli.TimestampConfig{Layouts: []string{time.RFC3339}},
			},
			&cli.StringFlag{Name: "bbox", Usage: "north,west,south,east[,epsg]"},
		},
		Action: observationsAction,
	}
}

func observationsAction(ctx context.Context, cmd *cli.Command) error {
	endpoint, provider, err := target(cmd)
	if err != nil {
		return err
	}
	q := model.ObservationQuery{
		Endpoint:          endpoint,
		Operation:         model.OpGetObservation,
		FeatureOfInterest: cmd.String("feature"),
	}
	if cmd.IsSet("begin") != cmd.IsSet("end") {
		return fmt.Errorf("--begin and --end must be given together")
	}
	if cmd.IsSet("begin") {
		begin, end := cmd.Timestamp("begin"), cmd.Timestamp("end")
		if end.Before(begin) {
			return fmt.Errorf("--end is before --begin")
		}
		q.Begin, q.End = &begin, &end
	}
	if raw := cmd.String("bbox"); raw != "" {
		bb, err := model.ParseBBox(raw)
		if err != nil {
			return fmt.Errorf("invalid --bbox: %w", err)
		}
		q.BBox = &bb
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	req, err := svc.BuildObservation(q)
	if err != nil {
		return err
	}
	req.Provider = provider
	return execute(ctx, cmd, svc, req)
}

func newCapabilitiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "capabilities",
		Usage: "Fetch a service's GetCapabilities document",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "service", Usage: "CSW or SOS", Value: "CSW"},
		},
		Action: capabilitiesAction,
	}
}

func capabilitiesAction(ctx context.Context, cmd *cli.Command) error {
	endpoint, provider, err := target(cmd)
	if err != nil {
		return err
	}
	st := strings.ToUpper(strings.TrimSpace(cmd.String("service")))
	if st != "CSW" && st != "SOS" {
		return fmt.Errorf("--service must be CSW or SOS (got %q)", st)
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	req, err := svc.BuildCapabilities(endpoint, st)
	if err != nil {
		return err
	}
	req.Provider = provider
	return execute(ctx, cmd, svc, req)
}
