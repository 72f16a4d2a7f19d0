package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/render"
	"github.com/tarancss/chainscan/scanner"
)

// snapshotOptions holds the flags of the snapshot command.
type snapshotOptions struct {
	duration time.Duration
	output   string
	interval float64
}

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	opts := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run a short scan and save its final state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := root.load()
			if err != nil {
				return err
			}

			return runSnapshot(cmd.Context(), conf, opts)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.duration, "duration", 8*time.Second, "time to scan before saving")
	f.StringVar(&opts.output, "output", "snapshot", "output file prefix (JSON and text)")
	f.Float64Var(&opts.interval, "interval", 2, "seconds between polls per chain")

	return cmd
}

// exporter returns the S3 exporter if a bucket is configured, the local one otherwise.
func exporter(conf config.ScanConfig) (*render.Exporter, error) {
	if conf.S3Bucket != "" {
		return render.NewS3(conf.AwsRegion, conf.S3Bucket)
	}

	return render.NewLocal(conf.ExportDir), nil
}

func runSnapshot(ctx context.Context, conf config.ScanConfig, opts *snapshotOptions) error {
	ex, err := exporter(conf)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(ctx)
	defer stop()

	cfg := scanner.ConfigFrom(conf, false)
	if opts.interval > 0 {
		cfg.Interval = time.Duration(opts.interval * float64(time.Second))
	}

	a, err := newApp(conf, cfg, render.NewTerminal(os.Stdout, true))
	if err != nil {
		return err
	}
	defer a.close()

	sctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	snap, err := a.sc.Run(sctx)
	if err != nil {
		return err
	}

	summary(snap)

	// the export must not be cut short by the scan timeout
	ectx, ecancel := context.WithTimeout(context.Background(), time.Minute)
	defer ecancel()

	_, err = ex.Export(ectx, opts.output, snap)

	return err
}
