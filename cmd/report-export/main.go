// Command report-export dumps the orders, vouchers, and redemptions tables
// as gzip-compressed JSONL files for offline reconciliation. Each table is
// streamed row by row, so memory use stays flat regardless of table size.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/ximepaparella/giftvoucher/internal/storage/postgres"
)

func main() {
	var (
		outDir      string
		databaseURL string
	)
	flag.StringVar(&outDir, "out-dir", "export", "directory for the exported .jsonl.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, outDir, databaseURL); err != nil {
		slog.Error("export failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outDir, databaseURL string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for _, exp := range exports {
		g.Go(func() error {
			n, err := exportTable(ctx, pool, outDir, exp)
			if err != nil {
				return errors.Wrapf(err, "export %s", exp.name)
			}
			slog.Info("exported", "table", exp.name, "rows", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("export complete", "dir", outDir, "took", time.Since(start))
	return nil
}

// export describes one table dump: the query and a row serializer writing
// a single JSON object.
type export struct {
	name  string
	query string
	write func(row []any, e *jx.Encoder)
}

var exports = []export{
	{
		name: "orders",
		query: `SELECT id, customer_id, store_id, amount::text, currency,
			status, payment_id, created_at, updated_at FROM orders ORDER BY created_at`,
		write: func(row []any, e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", fieldStr(row[0]))
				e.Field("customerId", fieldStr(row[1]))
				e.Field("storeId", fieldStr(row[2]))
				e.Field("amount", fieldStr(row[3]))
				e.Field("currency", fieldStr(row[4]))
				e.Field("status", fieldStr(row[5]))
				e.Field("paymentId", fieldStr(row[6]))
				e.Field("createdAt", fieldTime(row[7]))
				e.Field("updatedAt", fieldTime(row[8]))
			})
		},
	},
	{
		name: "vouchers",
		query: `SELECT id, order_id, store_id, customer_id, code, value::text,
			currency, status, valid_from, valid_until, created_at FROM vouchers ORDER BY created_at`,
		write: func(row []any, e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", fieldStr(row[0]))
				e.Field("orderId", fieldStr(row[1]))
				e.Field("storeId", fieldStr(row[2]))
				e.Field("customerId", fieldStr(row[3]))
				e.Field("code", fieldStr(row[4]))
				e.Field("value", fieldStr(row[5]))
				e.Field("currency", fieldStr(row[6]))
				e.Field("status", fieldStr(row[7]))
				e.Field("validFrom", fieldTime(row[8]))
				e.Field("validUntil", fieldTime(row[9]))
				e.Field("createdAt", fieldTime(row[10]))
			})
		},
	},
	{
		name: "redemptions",
		query: `SELECT id, voucher_id, store_id, redeemed_by, notes, status,
			redeemed_at FROM redemptions ORDER BY redeemed_at`,
		write: func(row []any, e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", fieldStr(row[0]))
				e.Field("voucherId", fieldStr(row[1]))
				e.Field("storeId", fieldStr(row[2]))
				e.Field("redeemedBy", fieldStr(row[3]))
				e.Field("notes", fieldStr(row[4]))
				e.Field("status", fieldStr(row[5]))
				e.Field("redeemedAt", fieldTime(row[6]))
			})
		},
	},
}

// exportTable streams the query result into <dir>/<name>.jsonl.gz.
func exportTable(ctx context.Context, pool *pgxpool.Pool, dir string, exp export) (int, error) {
	f, err := os.Create(filepath.Join(dir, exp.name+".jsonl.gz"))
	if err != nil {
		return 0, errors.Wrap(err, "create file")
	}
	defer f.Close()

	gz := pgzip.NewWriter(f)
	defer gz.Close()

	rows, err := pool.Query(ctx, exp.query)
	if err != nil {
		return 0, errors.Wrap(err, "query")
	}
	defer rows.Close()

	var (
		enc   jx.Encoder
		count int
	)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return count, errors.Wrap(err, "read row")
		}

		enc.Reset()
		exp.write(vals, &enc)
		if _, err := gz.Write(append(enc.Bytes(), '\n')); err != nil {
			return count, errors.Wrap(err, "write row")
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, errors.Wrap(err, "iterate rows")
	}

	if err := gz.Close(); err != nil {
		return count, errors.Wrap(err, "flush gzip")
	}
	return count, f.Close()
}

func fieldStr(v any) func(*jx.Encoder) {
	return func(e *jx.Encoder) {
		s, _ := v.(string)
		e.Str(s)
	}
}

func fieldTime(v any) func(*jx.Encoder) {
	return func(e *jx.Encoder) {
		t, ok := v.(time.Time)
		if !ok {
			e.Null()
			return
		}
		e.Str(t.UTC().Format(time.RFC3339))
	}
}
