package main

import (
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/logger"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/migration"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/server"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
