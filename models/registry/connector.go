package registry

import (
	"encoding/json"
	"strings"

	"github.com/APTrust/storage-gateway/constants"
)

// Connector is a worker that processes files. Import connectors
// declare the mime types they accept in Scope.
type Connector struct {
	Active         bool     `json:"active"`
	AutoTrigger    bool     `json:"auto"`
	ID             string   `json:"id"`
	InternalID     string   `json:"internal_id"`
	Name           string   `json:"name"`
	OnlyContextual bool     `json:"only_contextual"`
	Scope          []string `json:"connector_scope"`
	Type           string   `json:"connector_type"`
}

// ConnectorFromJSON converts JSON to a Connector.
func ConnectorFromJSON(jsonData []byte) (*Connector, error) {
	connector := &Connector{}
	err := json.Unmarshal(jsonData, connector)
	if err != nil {
		return nil, err
	}
	return connector, nil
}

// ToJSON converts a Connector to JSON.
func (c *Connector) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// Topic returns the queue topic this connector listens on.
func (c *Connector) Topic() string {
	return constants.TopicFor(c.InternalID)
}

// AcceptsImport returns true if this is an active import connector
// whose scope includes mimeType. If onlyAuto is true, the connector
// must also be set to trigger automatically.
func (c *Connector) AcceptsImport(mimeType string, onlyAuto bool) bool {
	if !c.Active || c.Type != constants.ConnectorTypeImportFile {
		return false
	}
	if onlyAuto && !c.AutoTrigger {
		return false
	}
	for _, scope := range c.Scope {
		if strings.EqualFold(scope, mimeType) {
			return true
		}
	}
	return false
}
