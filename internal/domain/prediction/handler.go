package prediction

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/riskscreen/riskscreen/internal/platform/telemetry"
	"github.com/riskscreen/riskscreen/pkg/pagination"
)

type Handler struct {
	svc     *Service
	metrics *telemetry.Metrics
}

func NewHandler(svc *Service, metrics *telemetry.Metrics) *Handler {
	return &Handler{svc: svc, metrics: metrics}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/predict", h.Predict)
	api.GET("/diseases", h.ListDiseases)
	api.GET("/diseases/:id", h.GetDisease)
	api.GET("/predictions", h.ListPredictions)
}

// predictRequest is the JSON form of a submission. Browser forms post the
// same data as application/x-www-form-urlencoded with a "disease" control.
type predictRequest struct {
	Disease string            `json:"disease"`
	Fields  map[string]string `json:"fields"`
}

func (h *Handler) Predict(c echo.Context) error {
	disease, submission, err := bindSubmission(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if rid, ok := c.Get("request_id").(string); ok {
		ctx = WithRequestID(ctx, rid)
	}

	out := h.svc.Predict(ctx, disease, submission)
	if h.metrics != nil {
		h.metrics.RecordPrediction(strings.ToLower(strings.TrimSpace(disease)), string(out.Status))
	}
	return c.JSON(out.Status.HTTPStatus(), out)
}

func bindSubmission(c echo.Context) (string, map[string]string, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		var req predictRequest
		if err := c.Bind(&req); err != nil {
			return "", nil, err
		}
		if req.Fields == nil {
			req.Fields = map[string]string{}
		}
		return req.Disease, req.Fields, nil
	}

	params, err := c.FormParams()
	if err != nil {
		return "", nil, err
	}
	submission := make(map[string]string, len(params))
	for k, vs := range params {
		if k == "disease" || len(vs) == 0 {
			continue
		}
		submission[k] = vs[0]
	}
	return params.Get("disease"), submission, nil
}

type fieldInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

type diseaseInfo struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Fields []fieldInfo `json:"fields,omitempty"`
}

func describeFields(fields []Field) []fieldInfo {
	out := make([]fieldInfo, 0, len(fields))
	for _, f := range fields {
		info := fieldInfo{Name: f.Name, Type: "numeric"}
		if f.Categorical() {
			info.Type = "categorical"
			info.Options = f.Options()
		}
		out = append(out, info)
	}
	return out
}

func (h *Handler) ListDiseases(c echo.Context) error {
	ids := Diseases()
	out := make([]diseaseInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, diseaseInfo{ID: id, Name: DisplayName(id)})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetDisease(c echo.Context) error {
	id := strings.ToLower(strings.TrimSpace(c.Param("id")))
	fields := Fields(id)
	if fields == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown disease")
	}
	return c.JSON(http.StatusOK, diseaseInfo{
		ID:     id,
		Name:   DisplayName(id),
		Fields: describeFields(fields),
	})
}

func (h *Handler) ListPredictions(c echo.Context) error {
	pg := pagination.FromContext(c)
	disease := strings.ToLower(strings.TrimSpace(c.QueryParam("disease")))
	items, total, err := h.svc.History(c.Request().Context(), disease, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
