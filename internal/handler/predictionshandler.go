package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"gridpulse-api/internal/logic"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
)

func PredictionsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PredictionsRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewPredictionsLogic(r.Context(), svcCtx)
		resp, err := l.Predictions(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
