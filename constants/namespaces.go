package constants

import "strings"

const (
	NamespaceImport            = "import/"
	NamespaceImportPending     = "import/pending"
	NamespaceExternalReference = "import/External-Reference"
)

// NoTriggerNamespaces lists the parts of the import namespace that hold
// staging or reference-linked uploads. Files landing there must not
// start import jobs.
var NoTriggerNamespaces = []string{
	NamespaceImportPending,
	NamespaceExternalReference,
}

// TriggersImport returns true if a file uploaded under path should
// start import jobs on the eligible connectors.
func TriggersImport(path string) bool {
	if !strings.HasPrefix(path, NamespaceImport) {
		return false
	}
	for _, ns := range NoTriggerNamespaces {
		if strings.HasPrefix(path, ns) {
			return false
		}
	}
	return true
}

// TopicFor returns the NSQ topic on which the connector with the
// given internal id receives its jobs.
func TopicFor(connectorInternalID string) string {
	return TopicPrefix + connectorInternalID
}
