// @title Adventure Server API
// @version 1.0
// @description Trip maps, wildlife identification, local fish and star charts.
// @host localhost:5001
// @BasePath /api
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"adventure-server-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [BOOT] starting adventure-server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "adventure-server failed: %v\n", err)
		os.Exit(1)
	}
}
