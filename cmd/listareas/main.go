// Command listareas prints the root tag of a forecast bulletin and the
// description of every area it declares, in document order.
//
// Usage:
//
//	go run ./cmd/listareas -file data/IDT16000.xml
//	go run ./cmd/listareas -fetch
//
// With -fetch the bulletin is first downloaded using the same FTP_* and
// XML_PATH settings as the forecast command.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/bom-forecast-etl/internal/adapter/ftp"
	"github.com/couchcryptid/bom-forecast-etl/internal/config"
	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
	"github.com/couchcryptid/bom-forecast-etl/internal/observability"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("listareas", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("file", "", "path to a local bulletin XML file")
	fetch := fs.Bool("fetch", false, "download the bulletin before listing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *fetch {
		fetched, err := download(stderr)
		if err != nil {
			return err
		}
		*path = fetched
	}
	if *path == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -file or -fetch")
	}

	b, err := domain.ParseBulletinFile(*path)
	if err != nil {
		return err
	}
	printAreas(stdout, b)
	return nil
}

func download(logOut io.Writer) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	logger := observability.NewLogger(cfg, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return ftp.NewFetcher(cfg, logger, observability.NewMetrics()).Fetch(ctx)
}

func printAreas(out io.Writer, b *domain.Bulletin) {
	fmt.Fprintf(out, "Root tag is: %s\n", b.Root)
	fmt.Fprintln(out, "Available areas and their descriptions:")
	for _, desc := range domain.ListAreas(b) {
		fmt.Fprintf(out, " - %s\n", desc)
	}
}
