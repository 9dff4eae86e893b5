package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"missionboard/internal/domain"
	"missionboard/internal/engine"
	"missionboard/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine      engine.Engine
	BasePath    string
	CORSOrigins []string
	Logger      *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"mission not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"id\":\"m-999\"}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the mission board API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, errorDetails(errs))
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg, errorDetails(errs))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	hcfg := huma.DefaultConfig("Mission Board API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMissions(group, cfg.Engine)
	registerHome(group, cfg.Engine)
	registerTaxonomy(group, cfg.Engine)
	registerImages(group, cfg.Engine)
	registerPayments(group, cfg.Engine)
	registerStats(group, cfg.Engine)
	registerSavedLists(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func errorDetails(errs []error) map[string]any {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return map[string]any{"errors": msgs}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error, details map[string]any) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), details)
	}
	if errors.Is(err, engine.ErrSavedListLimit) {
		return newAPIError(http.StatusTooManyRequests, "saved_list_limit", err.Error(), details)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, engine.ErrNoSavedLists) {
		return newAPIError(http.StatusServiceUnavailable, "unavailable", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("remote_addr", r.RemoteAddr),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var (
		once sync.Once
		spec []byte
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil || oas.Components == nil || oas.Components.Schemas == nil {
		return
	}
	errSchema := oas.Components.Schemas.Schema(reflect.TypeOf(apiError{}), true, "ApiError")
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {Schema: errSchema},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Mission Board API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HealthResponse `json:"body"`
	}, error) {
		return &struct {
			Body HealthResponse `json:"body"`
		}{Body: HealthResponse{Status: "ok"}}, nil
	})
}

func registerMissions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-missions",
		Method:      http.MethodGet,
		Path:        "/missions",
		Summary:     "Search, filter, sort and paginate missions",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *ListMissionsParams) (*listingBody, error) {
		l, err := e.Discover(ctx, input.query())
		if err != nil {
			return nil, handleError(err, nil)
		}
		return &listingBody{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-mission",
		Method:      http.MethodGet,
		Path:        "/missions/{id}",
		Summary:     "Mission detail with payout breakdown and related missions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*missionBody, error) {
		d, err := e.Mission(ctx, input.ID)
		if err != nil {
			return nil, handleError(err, map[string]any{"id": input.ID})
		}
		return &missionBody{Body: d}, nil
	})
}

func registerHome(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "home",
		Method:      http.MethodGet,
		Path:        "/home",
		Summary:     "Landing page data",
	}, func(ctx context.Context, _ *struct{}) (*homeBody, error) {
		h, err := e.Home(ctx)
		if err != nil {
			return nil, handleError(err, nil)
		}
		return &homeBody{Body: h}, nil
	})
}

func registerTaxonomy(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "taxonomy",
		Method:      http.MethodGet,
		Path:        "/taxonomy",
		Summary:     "Main categories and their specialty labels",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TaxonomyResponse `json:"body"`
	}, error) {
		return &struct {
			Body TaxonomyResponse `json:"body"`
		}{Body: TaxonomyResponse{Items: e.Taxonomy()}}, nil
	})
}

func registerImages(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-image",
		Method:      http.MethodGet,
		Path:        "/images",
		Summary:     "Resolve the illustration for a category and title",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Category string `query:"category"`
		Title    string `query:"title"`
	}) (*struct {
		Body ImageResponse `json:"body"`
	}, error) {
		return &struct {
			Body ImageResponse `json:"body"`
		}{Body: ImageResponse{
			Category: input.Category,
			Title:    input.Title,
			URL:      e.ResolveImage(input.Category, input.Title),
			Fallback: !e.Images.Known(input.Category),
		}}, nil
	})
}

func registerPayments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-payments",
		Method:      http.MethodGet,
		Path:        "/payments",
		Summary:     "List payments, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *PaymentsParams) (*struct {
		Body PaymentsResponse `json:"body"`
	}, error) {
		ps, err := e.Payments(ctx, repo.PaymentFilters{
			UserID:    input.UserID,
			MissionID: input.MissionID,
			Status:    domain.PaymentStatus(input.Status),
			Type:      domain.PaymentType(input.Type),
		})
		if err != nil {
			return nil, handleError(err, nil)
		}
		return &struct {
			Body PaymentsResponse `json:"body"`
		}{Body: PaymentsResponse{Items: ps}}, nil
	})
}

func registerStats(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Board-wide statistics",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.DashboardStats `json:"body"`
	}, error) {
		s, err := e.DashboardStats(ctx)
		if err != nil {
			return nil, handleError(err, nil)
		}
		return &struct {
			Body domain.DashboardStats `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "user-stats",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}/stats",
		Summary:     "Statistics for one contributor",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body domain.UserStats `json:"body"`
	}, error) {
		s, err := e.UserStats(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err, map[string]any{"user_id": input.UserID})
		}
		return &struct {
			Body domain.UserStats `json:"body"`
		}{Body: s}, nil
	})
}

func registerSavedLists(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-saved-list",
		Method:        http.MethodPost,
		Path:          "/saved-lists",
		Summary:       "Create a saved missions list",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests},
	}, func(ctx context.Context, input *struct {
		Body *CreateSavedListRequest `required:"false"`
	}) (*savedListBody, error) {
		var ids []string
		if input.Body != nil {
			ids = input.Body.MissionIDs
		}
		l, err := e.CreateSavedList(ctx, ids)
		if err != nil {
			return nil, handleError(err, nil)
		}
		return &savedListBody{Body: l}, nil
	})

	type listPath struct {
		ID string `path:"id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-saved-list",
		Method:      http.MethodGet,
		Path:        "/saved-lists/{id}",
		Summary:     "Get a saved missions list",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *listPath) (*savedListBody, error) {
		l, err := e.SavedList(ctx, input.ID)
		if err != nil {
			return nil, handleError(err, map[string]any{"id": input.ID})
		}
		return &savedListBody{Body: l}, nil
	})

	type entryPath struct {
		ID        string `path:"id"`
		MissionID string `path:"mission_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "save-mission",
		Method:      http.MethodPut,
		Path:        "/saved-lists/{id}/missions/{mission_id}",
		Summary:     "Bookmark a mission",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *entryPath) (*savedListBody, error) {
		l, err := e.SaveMission(ctx, input.ID, input.MissionID)
		if err != nil {
			return nil, handleError(err, map[string]any{"id": input.ID, "mission_id": input.MissionID})
		}
		return &savedListBody{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unsave-mission",
		Method:      http.MethodDelete,
		Path:        "/saved-lists/{id}/missions/{mission_id}",
		Summary:     "Remove a bookmarked mission",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *entryPath) (*savedListBody, error) {
		l, err := e.UnsaveMission(ctx, input.ID, input.MissionID)
		if err != nil {
			return nil, handleError(err, map[string]any{"id": input.ID, "mission_id": input.MissionID})
		}
		return &savedListBody{Body: l}, nil
	})
}
