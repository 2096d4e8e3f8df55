// Command scramblefn serves the SolvePhase Cloud Function locally.
package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"go.uber.org/zap"

	_ "crosswarped.com/scramble"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	logger.Info("starting function server", zap.String("port", port))
	if err := funcframework.Start(port); err != nil {
		logger.Fatal("funcframework.Start", zap.Error(err))
	}
}
