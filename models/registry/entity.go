package registry

// Entity is the record an uploaded file can be attached to. Files
// lists the files the entity itself keeps ordering and captions for.
type Entity struct {
	InternalID string       `json:"internal_id"`
	Files      []EntityFile `json:"files"`
}

// EntityFile is the entity-side view of an attached file.
type EntityFile struct {
	Description string `json:"description"`
	ID          string `json:"id"`
	InCarousel  bool   `json:"inCarousel"`
	Order       *int   `json:"order,omitempty"`
}

// FindFile returns the entity's entry for the file id, or nil.
func (e *Entity) FindFile(id string) *EntityFile {
	for i := range e.Files {
		if e.Files[i].ID == id {
			return &e.Files[i]
		}
	}
	return nil
}
