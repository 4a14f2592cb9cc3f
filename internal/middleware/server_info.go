package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// ServerInfo prints the startup banner and logs the same facts.
func ServerInfo(port, version string, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	numCPU := runtime.NumCPU()
	startTime := time.Now().Format("2006-01-02 15:04:05")
	base := "http://localhost:" + port

	fmt.Println("")
	fmt.Println(boldColor + "Blameja POS API " + version + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("Started at: " + startTime)
	fmt.Println("Server URL: " + cyanColor + base + resetColor)
	fmt.Println("Hostname:   " + hostname)
	fmt.Println("Go version: " + goVersion)
	fmt.Printf("CPU cores:  %d\n", numCPU)
	fmt.Println("")
	fmt.Println(boldColor + "Endpoints:" + resetColor)
	fmt.Println("   " + greenColor + "/api/v1/carts" + resetColor + "        sales cart and checkout")
	fmt.Println("   " + greenColor + "/api/v1/pos" + resetColor + "          code lookup, suggestions, direct sales")
	fmt.Println("   " + greenColor + "/api/v1/dispatches" + resetColor + "   dispatch notes")
	fmt.Println("   " + greenColor + "/api/v1/stock" + resetColor + "        receiving, adjustments, movements")
	fmt.Println("   " + greenColor + "/api/v1/finance" + resetColor + "      sales dashboard and export")
	fmt.Println("")
	fmt.Println(boldColor + "Monitoring:" + resetColor)
	fmt.Println("   Health:     " + cyanColor + base + "/health" + resetColor)
	fmt.Println("   Prometheus: " + cyanColor + base + "/metrics" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("")

	logger.Info("Server started",
		zap.String("port", port),
		zap.String("version", version),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.Int("cpu_cores", numCPU),
	)
}
