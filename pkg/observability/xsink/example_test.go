package xsink_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

func ExampleMultiFile() {
	dir, err := os.MkdirTemp("", "xsink-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	pool, err := xsink.NewMultiFile("tenants", dir, xsink.WithIdleTimeout(time.Minute))
	if err != nil {
		panic(err)
	}
	ctx := context.Background()
	pool.Dispatch(ctx, xsink.Entry{Key: "acme.log", Data: "hello acme"})
	pool.Dispatch(ctx, xsink.Entry{Key: "globex.log", Data: "hello globex"})
	pool.Dispatch(ctx, xsink.Entry{Key: "acme.log", Data: "bye acme"})

	fmt.Println(pool.Len(), pool.Stats().Created)
	if err := pool.Shutdown(ctx); err != nil {
		panic(err)
	}

	b, _ := os.ReadFile(filepath.Join(dir, "acme.log"))
	fmt.Print(string(b))
	// Output:
	// 2 2
	// hello acme
	// bye acme
}
