package subscription

import (
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/repository"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
