package client

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClassifier(baseURL string) *ClassifierClient {
	return NewClassifierClient(baseURL, "test-key", "safe-road", "tilik-jalan", 5*time.Second, testLogger())
}

func TestClassifierClient_Classify(t *testing.T) {
	var gotPath string
	var gotRequest workflowRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		response := map[string]any{
			"outputs": []map[string]any{
				{
					"details": map[string]any{
						"predictions": []map[string]any{
							{"class": "pothole", "confidence": 0.87},
							{"class": "crack", "confidence": 0.55},
						},
					},
					"original_image":  base64.StdEncoding.EncodeToString([]byte("orig-bytes")),
					"annotated_image": base64.StdEncoding.EncodeToString([]byte("ann-bytes")),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	c := newTestClassifier(server.URL)

	result, err := c.Classify([]byte("jpeg-bytes"))
	require.NoError(t, err)

	require.Equal(t, "/infer/workflows/safe-road/tilik-jalan", gotPath)
	require.Equal(t, "test-key", gotRequest.APIKey)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), gotRequest.Inputs["image"].Value)

	require.Len(t, result.Predictions, 2)
	require.Equal(t, "pothole", result.Predictions[0].Class)
	require.InDelta(t, 0.87, result.Predictions[0].Confidence, 1e-9)
	require.Equal(t, []byte("orig-bytes"), result.OriginalImage)
	require.Equal(t, []byte("ann-bytes"), result.AnnotatedImage)
}

func TestClassifierClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClassifier(server.URL)

	_, err := c.Classify([]byte("jpeg"))
	require.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestClassifierClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // сервер уже остановлен, соединение не установится

	c := newTestClassifier(server.URL)

	_, err := c.Classify([]byte("jpeg"))
	require.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestClassifierClient_EmptyOutputs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"outputs": []}`))
	}))
	defer server.Close()

	c := newTestClassifier(server.URL)

	_, err := c.Classify([]byte("jpeg"))
	require.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestClassifierClient_Name(t *testing.T) {
	c := newTestClassifier("http://example.com")
	require.Equal(t, "safe-road/tilik-jalan", c.Name())
}
