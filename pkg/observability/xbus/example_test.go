package xbus_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xbus"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

func ExampleAttach() {
	console, err := xsink.NewConsole("stdout", xsink.WithWriter(os.Stdout))
	if err != nil {
		panic(err)
	}
	bus := xbus.New(xbus.WithClock(func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	if err := xbus.Attach(bus, xbus.AnyLogger, xlog.LevelInfo, xsink.Sink[string](console), xsink.TextLine); err != nil {
		panic(err)
	}

	ctx := context.Background()
	log := bus.Logger("app")
	log.Debug(ctx, "not routed")
	log.Info(ctx, "listening", slog.Int("port", 8080))

	if err := bus.Shutdown(ctx); err != nil {
		panic(err)
	}
	// Output: [2026-01-02T03:04:05.000Z] [INFO] app - listening port=8080
}
