package main

import (
	"github.com/rs/zerolog/log"

	"partygames/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
