package eventbus

import "time"

const (
	EventArtifactCreated = "artifact:created"
	EventArtifactServed  = "artifact:served"
	EventArtifactExpired = "artifact:expired"

	EventUploadSpooled = "upload:spooled"
	EventUploadRemoved = "upload:removed"

	EventCapabilityError = "capability:error"
)

type ArtifactEventData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type UploadEventData struct {
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"`
	Size int64  `json:"size"`
}

type CapabilityEventData struct {
	Component string `json:"component"`
	Operation string `json:"operation"`
	Error     string `json:"error"`
}
