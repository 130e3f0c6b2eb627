package main

import (
	"github.com/opentimber/fieldsync/internal/config"
	handlerhttp "github.com/opentimber/fieldsync/internal/handler/http"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/server"
	"github.com/opentimber/fieldsync/internal/utils"
)

func main() {
	log := logger.NewLogger("stub-registry")

	cfg, err := config.GetStubConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	utils.InitHasherPool(cfg.App.HashKey)

	handler := handlerhttp.NewHandler(cfg, log)

	srv, err := server.NewServer(handler, cfg.Stub, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}
