package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"

	"storefront/internal/config"
	"storefront/internal/datastore"
	"storefront/internal/httpapi"
	"storefront/internal/listener"
	"storefront/internal/media"
	"storefront/internal/pipeline"
	"storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	db, err := storage.OpenFromConfig(cfg.DatabaseURL, cfg.DBPath)
	must(err)
	defer db.Close()

	resolve, err := media.FromConfig(cfg, logger)
	must(err)
	processor := pipeline.NewProcessingService(db, cfg, resolve, logger)

	cmd := os.Args[1]
	switch cmd {
	case "orders:sync":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		incremental := fs.Bool("incremental", false, "only rows updated since the last sync")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("DATASTORE_URL", cfg.DatastoreURL))
		svc := datastore.NewSyncService(db, cfg, logger)
		var count int
		if *incremental {
			count, err = svc.IncrementalSync(context.Background())
		} else {
			count, err = svc.InitialSync(context.Background())
		}
		must(err)
		fmt.Printf("order sync complete incremental=%t orders=%d\n", *incremental, count)
	case "orders:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		inType := fs.String("type", "", "json|xlsx|html")
		input := fs.String("input", "", "input file path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *inType == "" {
			must(fmt.Errorf("--type and --input are required"))
		}
		res, err := processor.Import(*inType, *input)
		must(err)
		fmt.Printf("import done orders=%d lines=%d legacy=%d trace=%s\n", res.Orders, res.Lines, res.Legacy, res.TraceID)
	case "orders:items":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "order id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		lines, err := processor.LineItems(*id)
		must(err)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		must(enc.Encode(lines))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ids := fs.String("id", "", "order id, comma separated for several")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		orderIDs := lo.Compact(lo.Map(strings.Split(*ids, ","), func(s string, _ int) string { return strings.TrimSpace(s) }))
		if len(orderIDs) == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--id and --out are required"))
		}
		n, err := processor.ExportOrders(lo.Uniq(orderIDs), *out)
		must(err)
		fmt.Printf("exported %d rows to %s\n", n, *out)
	case "orders:listen":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(cfg.Require("DATASTORE_URL", cfg.DatastoreURL))
		svc := listener.NewService(db, datastore.NewSyncService(db, cfg, logger), processor, cfg, logger)
		must(svc.Run(ctx))
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		srv := httpapi.New(db, processor, logger)
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		must(srv.Start(*addr))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: storefront <command>")
	fmt.Println("commands:")
	fmt.Println("  orders:sync [--incremental]")
	fmt.Println("  orders:import --type=json|xlsx|html --input=./orders.json")
	fmt.Println("  orders:items --id=ORDER_ID")
	fmt.Println("  orders:listen")
	fmt.Println("  export:xlsx --id=ID[,ID...] --out=./out/orders.xlsx")
	fmt.Println("  serve [--addr=:8080]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
