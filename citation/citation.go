// Package citation credits the Ticha project in output, webhook payloads
// and API responses.
package citation

import (
	"fmt"
	"time"

	"github.com/Maclenn77/ticha/models"
)

const (
	source      = "Ticha: a digital text explorer for Colonial Zapotec"
	projectInfo = "Ticha project by Brook Danielle Lillehaugen, George Aaron Broadwell, et al."
)

// Info builds the citation block for data retrieved from url at the current
// date.
func Info(url string) models.Citation {
	return InfoAt(url, time.Now())
}

// InfoAt builds the citation block for data retrieved at a known time, such
// as a cached result's scrape time.
func InfoAt(url string, at time.Time) models.Citation {
	return models.Citation{
		URL:         url,
		AccessDate:  at.Format(time.RFC3339),
		Source:      source,
		Citation:    fmt.Sprintf("Data retrieved from %s, accessed %s", url, at.Format("2006-01-02")),
		ProjectInfo: projectInfo,
	}
}
