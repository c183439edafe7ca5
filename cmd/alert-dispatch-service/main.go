// alert-dispatch-service runs the variance alert outbox dispatcher as a
// standalone worker. The API server runs the same dispatcher in-process by
// default; deploy this binary instead when the API runs with
// DISABLE_ALERT_DISPATCHER=true so publishing load stays off the
// request-serving instances.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   REDIS_HOST=... VARIANCE_ALERT_TOPIC=... go run ./cmd/alert-dispatch-service
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/workflow"
)

func main() {
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	if db == nil {
		logger.Fatal("database not initialized (config.GetDB returned nil). Set DB_* env vars.")
	}
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	dispatcher := workflow.NewAlertDispatcher(db, logger)
	logger.WithField("dispatcher_id", dispatcher.DispatcherID).Info("starting variance alert dispatcher")

	dispatcher.Run(sigCtx)

	logger.Info("variance alert dispatcher stopped")
}
