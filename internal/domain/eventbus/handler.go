package eventbus

import (
	"adventure-server-go/internal/utils"
)

// LogHandler writes lifecycle events to the tagged logger.
type LogHandler struct {
	logger *utils.Logger
}

func NewLogHandler(logger *utils.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// Attach subscribes the handler to every lifecycle topic.
func (h *LogHandler) Attach(bus *AsyncEventBus) error {
	subs := map[string]interface{}{
		EventArtifactCreated: h.onArtifactCreated,
		EventArtifactServed:  h.onArtifactServed,
		EventArtifactExpired: h.onArtifactExpired,
		EventUploadSpooled:   h.onUploadSpooled,
		EventUploadRemoved:   h.onUploadRemoved,
		EventCapabilityError: h.onCapabilityError,
	}
	for topic, fn := range subs {
		if err := bus.Subscribe(topic, fn); err != nil {
			return err
		}
	}
	return nil
}

func (h *LogHandler) onArtifactCreated(data ArtifactEventData) {
	h.logger.DebugTag("ARTIFACT", "created %s (%s), expires %s", data.Name, data.Kind, data.ExpiresAt.Format("15:04:05"))
}

func (h *LogHandler) onArtifactServed(data ArtifactEventData) {
	h.logger.DebugTag("ARTIFACT", "served %s", data.Name)
}

func (h *LogHandler) onArtifactExpired(data ArtifactEventData) {
	h.logger.InfoTag("ARTIFACT", "expired %s", data.Name)
}

func (h *LogHandler) onUploadSpooled(data UploadEventData) {
	h.logger.DebugTag("UPLOAD", "spooled %s (%d bytes)", data.Path, data.Size)
}

func (h *LogHandler) onUploadRemoved(data UploadEventData) {
	h.logger.DebugTag("UPLOAD", "removed %s", data.Path)
}

func (h *LogHandler) onCapabilityError(data CapabilityEventData) {
	h.logger.WarnTag("OBS", "%s.%s failed: %s", data.Component, data.Operation, data.Error)
}
