package query

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/canopy-network/syncx/app/query/controller"
	"github.com/canopy-network/syncx/app/query/types"
	"github.com/canopy-network/syncx/pkg/utils"
)

// NewServer creates and attaches the HTTP server to the app.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	addr := utils.Env("ADDR", ":3001")

	app.Server = &http.Server{Addr: addr, Handler: controller.WithCORS(router)}
	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
