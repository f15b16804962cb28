package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"gridpulse-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/backfill",
				Handler: BackfillHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/forecast",
				Handler: ForecastHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/market/context",
				Handler: MarketContextHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/predictions",
				Handler: PredictionsHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/v1"),
	)
}
