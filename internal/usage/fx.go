package usage

import (
	"github.com/venturebridge/venturebridge/internal/usage/repository"
	"github.com/venturebridge/venturebridge/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
