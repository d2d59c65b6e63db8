package feature

import (
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/repository"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feature.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
