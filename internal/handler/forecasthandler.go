package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"gridpulse-api/internal/logic"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
)

func ForecastHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ForecastRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewForecastLogic(r.Context(), svcCtx)
		resp, err := l.Forecast(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
