package service

import (
	"encoding/json"
)

// ImportOptions are the caller's knobs for an import dispatch.
// Configuration is passed through to the connector untouched.
type ImportOptions struct {
	BypassValidation bool
	Configuration    interface{}
	ConnectorID      string
	Manual           bool
}

// ImportJobMessage is what we publish to a connector's queue to start
// an import.
type ImportJobMessage struct {
	Configuration interface{}    `json:"configuration"`
	Event         ImportJobEvent `json:"event"`
	Internal      ImportInternal `json:"internal"`
}

type ImportInternal struct {
	ApplicantID string `json:"applicant_id"`
	WorkID      string `json:"work_id"`
}

type ImportJobEvent struct {
	BypassValidation bool   `json:"bypass_validation"`
	EntityID         string `json:"entity_id,omitempty"`
	FileFetch        string `json:"file_fetch"`
	FileID           string `json:"file_id"`
	FileMime         string `json:"file_mime"`
}

// ImportJobMessageFromJSON converts JSON to an ImportJobMessage.
func ImportJobMessageFromJSON(jsonData []byte) (*ImportJobMessage, error) {
	msg := &ImportJobMessage{}
	err := json.Unmarshal(jsonData, msg)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ToJSON converts the message to the JSON body we put on the queue.
func (msg *ImportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(msg)
}
