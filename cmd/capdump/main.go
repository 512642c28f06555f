//go:build !tinygo

// Command capdump prints a recorded capture in the serial line format.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"rtsampler/sampler/sink/capture"
)

func main() {
	var (
		dbPath = flag.String("db", "", "Capture database written by -capture.")
		id     = flag.Int64("id", 0, "Capture id (0 = newest).")
		limit  = flag.Int("limit", 0, "Stop after N lines (0 = all).")
		ending = flag.String("ending", "crlf", "Line ending: crlf|lf.")
		stamps = flag.Bool("ts", false, "Prefix each line with its capture time.")
	)
	flag.Parse()

	if *dbPath == "" {
		fatalf("usage: capdump -db capture.db [-id N] [-limit N] [-ending crlf|lf] [-ts]")
	}
	eol, ok := map[string]string{"crlf": "\r\n", "lf": "\n"}[*ending]
	if !ok {
		fatalf("unknown line ending: %s", *ending)
	}

	out := bufio.NewWriter(os.Stdout)
	err := dump(context.Background(), out, *dbPath, *id, *limit, eol, *stamps)
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		fatalf("capdump: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func dump(ctx context.Context, w io.Writer, path string, id int64, limit int, eol string, stamps bool) error {
	r, err := capture.OpenReader(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()

	if id == 0 {
		if id, err = r.Latest(ctx); err != nil {
			return fmt.Errorf("no captures in %s: %w", path, err)
		}
	}
	return r.Each(ctx, id, limit, func(row capture.Row) error {
		if stamps {
			if _, err := io.WriteString(w, row.At.UTC().Format(time.RFC3339Nano)+" "); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, row.Line+eol)
		return err
	})
}
