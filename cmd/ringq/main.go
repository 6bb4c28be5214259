// Command ringq moves a sequence of integers from a producer goroutine
// to a consumer goroutine through a lock-free ring queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/FerroO2000/ringq"
	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/egress"
	"github.com/FerroO2000/ringq/ingress"
	"github.com/FerroO2000/ringq/internal"
	"github.com/FerroO2000/ringq/internal/retry"
)

func main() {
	items := flag.Int("items", 10_000, "number of integers to transfer")
	capacity := flag.Uint64("capacity", 100, "capacity of the ring queue (holds capacity-1 items)")
	retryName := flag.String("retry", retry.DefaultKind.String(), "retry policy: spin, yield or backoff")
	printValues := flag.Bool("print", false, "print every transferred value")
	otlpEndpoint := flag.String("otlp", "", "OTLP gRPC collector endpoint, e.g. localhost:4317")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	if err := run(*items, *capacity, *retryName, *printValues, *otlpEndpoint, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "ringq:", err)
		os.Exit(1)
	}
}

func run(items int, capacity uint64, retryName string, printValues bool, otlpEndpoint string, verbose bool) error {
	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelCtx()

	if verbose {
		internal.SetLogLevel(slog.LevelDebug)
	}

	tel := internal.NewTelemetry("command", "ringq")

	if otlpEndpoint != "" {
		shutdown, err := initTelemetry(ctx, otlpEndpoint)
		if err != nil {
			tel.LogWarn("telemetry export disabled", "reason", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					tel.LogError("failed to shutdown telemetry", err)
				}
			}()
		}
	}

	retryKind, err := retry.ParseKind(retryName)
	if err != nil {
		return err
	}

	connCfg := connector.DefaultRingQueueConfig(capacity)
	connCfg.Name = "sequence_to_consumer"
	connCfg.WriteRetry.Kind = retryKind
	connCfg.ReadRetry.Kind = retryKind
	conn := connector.NewRingQueue[*ingress.SequenceMessage](connCfg)

	seqCfg := ingress.DefaultSequenceConfig()
	seqCfg.Count = items
	seqStage := ingress.NewSequenceStage(conn, seqCfg)

	var consumer interface {
		ringq.Stage
		Done() <-chan struct{}
		Delivered() int64
	}

	if printValues {
		format := func(sm *ingress.SequenceMessage) string { return strconv.Itoa(sm.Value) }
		consumer = egress.NewWriterStage(conn, format, egress.DefaultWriterConfig())
	} else {
		consumer = egress.NewSinkStage[*ingress.SequenceMessage](conn)
	}

	pipeline := ringq.NewPipeline()
	pipeline.AddStage(seqStage)
	pipeline.AddStage(consumer)

	if err := pipeline.Init(ctx); err != nil {
		return err
	}

	start := time.Now()
	pipeline.Run(ctx)

	select {
	case <-ctx.Done():
		tel.LogWarn("interrupted")
	case <-pipeline.Done():
	}

	pipeline.Close()

	elapsed := time.Since(start)
	drained := connector.DestroyAll(conn)

	tel.LogInfo("transfer completed",
		"emitted", seqStage.Emitted(),
		"consumed", consumer.Delivered(),
		"drained", drained,
		"retry", retryKind,
		"elapsed", elapsed,
		"items_per_sec", int(float64(consumer.Delivered())/elapsed.Seconds()),
	)

	return nil
}
