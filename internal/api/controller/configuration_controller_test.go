package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bassista/go_fest/internal/config"
	"github.com/gin-gonic/gin"
)

func TestConfigurationController_GetConfiguration(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		cfg          config.Config
		expectedBody ConfigurationResponse
	}{
		{
			name: "file storage with default location",
			cfg: config.Config{
				API:     config.APIConfig{BaseURL: "https://fest.example.com/wp-json/fest/v1"},
				Storage: config.StorageConfig{Type: config.StorageTypeFile},
				Sync:    config.SyncConfig{PollInterval: 5 * time.Minute, ConnectivityInterval: 15 * time.Second},
			},
			expectedBody: ConfigurationResponse{
				APIBaseURL:              "https://fest.example.com/wp-json/fest/v1",
				StorageType:             "file",
				PollIntervalSec:         300,
				ConnectivityIntervalSec: 15,
			},
		},
		{
			name: "redis storage with chronological sections",
			cfg: config.Config{
				API:     config.APIConfig{BaseURL: "http://localhost:8081"},
				Storage: config.StorageConfig{Type: config.StorageTypeRedis, RedisPassword: "secret"},
				Sync: config.SyncConfig{
					PollInterval:              time.Minute,
					ConnectivityInterval:      time.Second,
					TimeLocation:              "Europe/Rome",
					ChronologicalTimeSections: true,
				},
			},
			expectedBody: ConfigurationResponse{
				APIBaseURL:                "http://localhost:8081",
				StorageType:               "redis",
				PollIntervalSec:           60,
				ConnectivityIntervalSec:   1,
				TimeLocation:              "Europe/Rome",
				ChronologicalTimeSections: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := NewConfigurationController(&tt.cfg)

			router := gin.New()
			router.GET("/configuration", controller.GetConfiguration)

			req, err := http.NewRequest(http.MethodGet, "/configuration", nil)
			if err != nil {
				t.Fatalf("failed to create request: %v", err)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}

			var response ConfigurationResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response != tt.expectedBody {
				t.Errorf("expected %+v, got %+v", tt.expectedBody, response)
			}
		})
	}
}

func TestConfigurationController_DoesNotLeakSecrets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Storage: config.StorageConfig{RedisPassword: "hunter2"}}

	router := gin.New()
	router.GET("/configuration", NewConfigurationController(cfg).GetConfiguration)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configuration", nil))

	if body := w.Body.String(); body == "" || strings.Contains(body, "hunter2") {
		t.Errorf("unexpected body: %s", body)
	}
}
