package controller

import (
	"net/http"

	"github.com/bassista/go_fest/internal/config"
	"github.com/gin-gonic/gin"
)

// ConfigurationResponse represents the configuration response structure for the API.
type ConfigurationResponse struct {
	APIBaseURL                string `json:"apiBaseUrl"`
	StorageType               string `json:"storageType"`
	PollIntervalSec           int    `json:"pollIntervalSec"`
	ConnectivityIntervalSec   int    `json:"connectivityIntervalSec"`
	TimeLocation              string `json:"timeLocation"`
	ChronologicalTimeSections bool   `json:"chronologicalTimeSections"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration returns the non-secret part of the configuration for the frontend.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	response := ConfigurationResponse{
		APIBaseURL:                cc.config.API.BaseURL,
		StorageType:               cc.config.Storage.Type,
		PollIntervalSec:           int(cc.config.Sync.PollInterval.Seconds()),
		ConnectivityIntervalSec:   int(cc.config.Sync.ConnectivityInterval.Seconds()),
		TimeLocation:              cc.config.Sync.TimeLocation,
		ChronologicalTimeSections: cc.config.Sync.ChronologicalTimeSections,
	}
	c.JSON(http.StatusOK, response)
}
