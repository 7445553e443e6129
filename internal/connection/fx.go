package connection

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/venturebridge/venturebridge/internal/config"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	"github.com/venturebridge/venturebridge/internal/connection/remote"
	"github.com/venturebridge/venturebridge/internal/connection/repository"
	"github.com/venturebridge/venturebridge/internal/connection/service"
	obsmetrics "github.com/venturebridge/venturebridge/internal/observability/metrics"
)

type remoteParams struct {
	fx.In

	Cfg     config.Config
	Store   *repository.Store
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// provideRemote picks the authority: the HTTP client when a remote base URL
// is configured, the local store otherwise.
func provideRemote(p remoteParams) connectiondomain.RemoteService {
	if baseURL := strings.TrimSpace(p.Cfg.RemoteBaseURL); baseURL != "" {
		return remote.NewClient(baseURL, p.Log, p.Metrics)
	}
	return p.Store
}

var Module = fx.Module("connection.service",
	fx.Provide(
		repository.NewStore,
		provideRemote,
		repository.ProvideCache,
		service.New,
	),
)
