package plan

import (
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/repository"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
