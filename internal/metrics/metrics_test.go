package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("get", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("get", "418"))

	assert.Equal(t, before+1, after)
	assert.Equal(t, 0.0, testutil.ToFloat64(RequestsInFlight))
}

func TestObserveConfig(t *testing.T) {
	ok := testutil.ToFloat64(ConfigResolutions.WithLabelValues("ok"))
	bad := testutil.ToFloat64(ConfigResolutions.WithLabelValues("invalid"))

	ObserveConfig(nil)
	ObserveConfig(errors.New("missing SECRET_KEY"))

	assert.Equal(t, ok+1, testutil.ToFloat64(ConfigResolutions.WithLabelValues("ok")))
	assert.Equal(t, bad+1, testutil.ToFloat64(ConfigResolutions.WithLabelValues("invalid")))
}

func TestGauges(t *testing.T) {
	SetBuildInfo("1.0.0", "test")
	assert.Equal(t, 1.0, testutil.ToFloat64(BuildInfo.WithLabelValues("1.0.0", "test")))

	SetDependency("redis", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(DependencyUp.WithLabelValues("redis")))
	SetDependency("redis", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(DependencyUp.WithLabelValues("redis")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	SetBuildInfo("9.9.9", "test")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gateway_build_info{environment="test",version="9.9.9"} 1`)
}
