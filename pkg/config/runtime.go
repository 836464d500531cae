package config

import (
	"golang.org/x/time/rate"

	log "github.com/sirupsen/logrus"

	"patientsheets/pkg/sheets"
)

// ConfigureLogging sets the logrus level and formatter for the process.
func (c *Config) ConfigureLogging(verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	// Set the log format to include a leading timestamp in ISO8601 format
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

// Sessions builds the document backend named by Backend.
func (c *Config) Sessions() sheets.SessionProvider {
	if c.Backend == BackendWorkbook {
		return &sheets.WorkbookSessions{Dir: c.DataDir}
	}
	return &sheets.GoogleSessions{
		CredentialsFile: c.CredentialsFile,
		Rate:            rate.Limit(c.RateLimitRPS),
		Burst:           c.RateLimitBurst,
	}
}
