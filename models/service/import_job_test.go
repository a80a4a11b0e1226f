package service_test

import (
	"testing"

	"github.com/APTrust/storage-gateway/models/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportJobMessageJson(t *testing.T) {
	msg := &service.ImportJobMessage{
		Internal: service.ImportInternal{WorkID: "work-1", ApplicantID: "user-1"},
		Event: service.ImportJobEvent{
			FileID:    "import/global/a.pdf",
			FileMime:  "application/pdf",
			FileFetch: "/storage/get/import/global/a.pdf",
		},
	}
	data, err := msg.ToJSON()
	require.Nil(t, err)
	assert.JSONEq(t, `{
		"internal": {"work_id": "work-1", "applicant_id": "user-1"},
		"event": {
			"file_id": "import/global/a.pdf",
			"file_mime": "application/pdf",
			"file_fetch": "/storage/get/import/global/a.pdf",
			"bypass_validation": false
		},
		"configuration": null
	}`, string(data))

	decoded, err := service.ImportJobMessageFromJSON(data)
	require.Nil(t, err)
	assert.Equal(t, msg, decoded)
}
