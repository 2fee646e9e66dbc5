package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padron/internal/audit"
	"padron/internal/identity/handler"
	"padron/internal/identity/metrics"
	"padron/internal/identity/registry"
	"padron/internal/identity/registry/registrytest"
	"padron/internal/identity/service"
	"padron/pkg/platform/middleware/httpmetrics"
	"padron/pkg/platform/middleware/requestid"
	"padron/pkg/testutil"
)

type app struct {
	router   http.Handler
	registry *registrytest.Server
	audit    *audit.MemorySink
}

func newApp(t *testing.T, respond registrytest.Responder) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	stub := registrytest.New(t, respond)

	client, err := registry.NewClient(registry.Config{BaseURL: stub.URL, Token: "server-token"},
		registry.WithMetrics(metrics.New(reg)))
	require.NoError(t, err)

	sink := audit.NewMemorySink()
	svc := service.New(client,
		service.WithAuditPublisher(audit.NewPublisher([]audit.Sink{sink})),
		service.WithLogger(logger),
	)
	router := NewRouter(Deps{
		Logger:      logger,
		Gatherer:    reg,
		HTTPMetrics: httpmetrics.New(reg),
		Routes:      []RouteRegistrar{handler.New(svc, logger)},
	})
	return &app{router: router, registry: stub, audit: sink}
}

var carlosSnake = map[string]any{
	"nombres":            "CARLOS",
	"apellido_paterno":   "MENDOZA",
	"apellido_materno":   "SILVA",
	"fecha_nacimiento":   "1985-04-12",
	"direccion_completa": "AV. AREQUIPA 1234",
	"distrito":           "LINCE",
	"provincia":          "LIMA",
	"departamento":       "LIMA",
}

func TestIdentityLookupEndToEnd(t *testing.T) {
	testutil.Given(t, "a registry that knows DNI 72345678", func(t *testing.T) {
		a := newApp(t, registrytest.JSON(http.StatusOK, carlosSnake))

		testutil.When(t, "GET /identity/72345678", func(t *testing.T) {
			rr := testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/identity/72345678"))

			testutil.Then(t, "the normalized record is returned", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				env := testutil.UnmarshalEnvelope(t, rr)
				assert.True(t, env.Success)
				assert.Equal(t, handler.MsgSuccess, env.Message)

				var data handler.PersonResponse
				require.NoError(t, json.Unmarshal(env.Data, &data))
				assert.Equal(t, "72345678", data.DNI)
				assert.Equal(t, "CARLOS MENDOZA SILVA", data.NombreCompleto)
				require.NotNil(t, data.Direccion)
				assert.Equal(t, "AV. AREQUIPA 1234", *data.Direccion)
				assert.Nil(t, data.Sexo)
				assert.NotEmpty(t, data.ConsultadoAt)
			})

			testutil.Then(t, "exactly one registry call carried the DNI and credentials", func(t *testing.T) {
				assert.Equal(t, 1, a.registry.Calls())
				last, ok := a.registry.LastRequest()
				require.True(t, ok)
				assert.Equal(t, []string{"72345678"}, last.Query["numero"])
				assert.Equal(t, "Bearer server-token", last.Header.Get("Authorization"))
				assert.Equal(t, "server-token", last.Header.Get("X-Api-Key"))
				assert.Equal(t, "server-token", last.Header.Get("X-Auth-Token"))
			})

			testutil.Then(t, "the response carries a request ID and one masked audit event", func(t *testing.T) {
				assert.NotEmpty(t, rr.Header().Get(requestid.Header))
				events := a.audit.Events()
				require.Len(t, events, 1)
				assert.Equal(t, "7234****", events[0].Subject)
				assert.Equal(t, rr.Header().Get(requestid.Header), events[0].RequestID)
			})
		})
	})
}

func TestInvalidDNINeverReachesRegistry(t *testing.T) {
	testutil.Given(t, "a registry stub", func(t *testing.T) {
		a := newApp(t, registrytest.JSON(http.StatusOK, carlosSnake))

		testutil.When(t, "GET /identity/123", func(t *testing.T) {
			rr := testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/identity/123"))

			testutil.Then(t, "400 with the format message and zero upstream calls", func(t *testing.T) {
				testutil.AssertFailure(t, rr, http.StatusBadRequest, handler.MsgInvalidFormat)
				assert.Zero(t, a.registry.Calls())
			})
		})
	})
}

func TestPostTokenOverridesConfiguredCredential(t *testing.T) {
	a := newApp(t, registrytest.JSON(http.StatusOK, carlosSnake))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/identity/72345678", map[string]string{"token": "caller-token"})
	rr := testutil.DoRequest(a.router, req)

	testutil.AssertStatusOK(t, rr)
	last, ok := a.registry.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Bearer caller-token", last.Header.Get("Authorization"))
}

func TestUpstreamFailuresAreTranslated(t *testing.T) {
	tests := []struct {
		name    string
		respond registrytest.Responder
		status  int
		message string
	}{
		{"not found", registrytest.JSON(http.StatusNotFound, map[string]string{"message": "no existe"}), http.StatusNotFound,
			"El registro de identidad rechazó la consulta: 404 Not Found"},
		{"server error", registrytest.Raw(http.StatusInternalServerError, ""), http.StatusBadGateway,
			"El registro de identidad rechazó la consulta: 500 Internal Server Error"},
		{"empty body", registrytest.Raw(http.StatusOK, "  "), http.StatusBadGateway, handler.MsgEmptyResponse},
		{"null body", registrytest.Raw(http.StatusOK, "null"), http.StatusBadGateway, handler.MsgEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp(t, tt.respond)

			rr := testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/identity/72345678"))

			testutil.AssertFailure(t, rr, tt.status, tt.message)
			assert.Equal(t, 1, a.registry.Calls())
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	a := newApp(t, registrytest.JSON(http.StatusOK, carlosSnake))
	testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/identity/72345678"))

	health := testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatusOK(t, health)
	testutil.AssertJSONContains(t, health, "status", "ok")

	metricsRR := testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, metricsRR)
	body := metricsRR.Body.String()
	assert.True(t, strings.Contains(body, "padron_identity_upstream_duration_seconds"))
	assert.True(t, strings.Contains(body, `padron_http_requests_total{method="GET",route="/identity/{id}",status="200"} 1`))

	missing := testutil.DoRequest(a.router, testutil.NewRequest(t, http.MethodGet, "/nope"))
	testutil.AssertStatus(t, missing, http.StatusNotFound)
}
