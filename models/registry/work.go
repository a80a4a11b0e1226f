package registry

import (
	"encoding/json"
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/util"
	"github.com/google/uuid"
)

// Work tracks one asynchronous processing job: an import run by a
// connector on an uploaded file, or an export that will eventually
// write a file under a storage path.
type Work struct {
	ConnectorID string    `json:"connector_id"`
	CreatedAt   time.Time `json:"created_at"`
	Errors      []string  `json:"errors"`
	ID          string    `json:"id"`
	Messages    []string  `json:"messages"`
	Name        string    `json:"name"`
	SourceID    string    `json:"source_id"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
}

// NewWork returns a new Work in wait status with a fresh id.
// Param sourceID is the file id for imports and the storage path
// for exports.
func NewWork(workType, name, connectorID, sourceID, userID string) *Work {
	now := time.Now().UTC()
	return &Work{
		ConnectorID: connectorID,
		CreatedAt:   now,
		Errors:      make([]string, 0),
		ID:          uuid.NewString(),
		Messages:    make([]string, 0),
		Name:        name,
		SourceID:    sourceID,
		Status:      constants.WorkStatusWait,
		Type:        workType,
		UpdatedAt:   now,
		UserID:      userID,
	}
}

// WorkFromJSON converts a JSON representation of a Work to
// a Work object.
func WorkFromJSON(jsonData []byte) (*Work, error) {
	work := &Work{}
	err := json.Unmarshal(jsonData, work)
	if err != nil {
		return nil, err
	}
	return work, nil
}

// ToJSON converts a Work to its JSON representation.
func (work *Work) ToJSON() ([]byte, error) {
	return json.Marshal(work)
}

// InFlight returns true if the work is waiting or running.
func (work *Work) InFlight() bool {
	return util.StringListContains(constants.InFlightWorkStatuses, work.Status)
}

// MarkInProgress sets the status to progress and bumps UpdatedAt.
func (work *Work) MarkInProgress(message string) {
	work.Status = constants.WorkStatusProgress
	if message != "" {
		work.Messages = append(work.Messages, message)
	}
	work.UpdatedAt = time.Now().UTC()
}
