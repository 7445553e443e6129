package subscription

import (
	"github.com/venturebridge/venturebridge/internal/subscription/repository"
	"github.com/venturebridge/venturebridge/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
