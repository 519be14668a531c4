package main

import (
	"github.com/Digital-Creators-Team/casino-engine/docs"
	"github.com/Digital-Creators-Team/casino-engine/wire"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app, cleanup, err := wire.InitializeApp(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			app.UseCommonMiddlewares()
			app.RegisterHealthCheck()
			app.RegisterRoutes()
			if cfg.IsDevelopment() {
				app.RegisterSwagger(docs.SwaggerInfo)
			}

			return app.Run()
		},
	}
}
