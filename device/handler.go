package device

// Handler is the capability interface implemented by the device-specific
// collaborator. The core calls into it at startup and while building
// replies; every hook receives the JSON object (or list) it may extend.
//
// Embed NopHandler to implement only the hooks a device needs.
type Handler interface {
	// HandleInit runs after the persisted configuration has been read,
	// before the first request is handled.
	HandleInit()

	// HandleSwitchChannel reacts to a switchChannel request.
	HandleSwitchChannel(channel uint8)

	// ImportConfiguration merges the device-specific part of a
	// writeConfiguration request. It runs before the record is persisted.
	ImportConfiguration(configuration map[string]any)

	// ExportMetadata extends the human-readable device properties.
	ExportMetadata(metadata map[string]any)

	// ExportSystem extends the machine-readable state and statistics.
	ExportSystem(system map[string]any)

	// ExportSettings returns the list of editable settings descriptors.
	ExportSettings() []any

	// ExportConfiguration extends the single configuration record the host
	// edits, backs up and restores.
	ExportConfiguration(configuration map[string]any)

	// ExportInput describes the notes and controllers the device listens
	// to. An empty object is omitted from the reply.
	ExportInput(input map[string]any)

	// ExportOutput describes the notes and controllers the device sends.
	// An empty object is omitted from the reply.
	ExportOutput(output map[string]any)
}

// NopHandler implements Handler with no-ops.
type NopHandler struct{}

func (NopHandler) HandleInit()                                 {}
func (NopHandler) HandleSwitchChannel(uint8)                   {}
func (NopHandler) ImportConfiguration(map[string]any)          {}
func (NopHandler) ExportMetadata(map[string]any)               {}
func (NopHandler) ExportSystem(map[string]any)                 {}
func (NopHandler) ExportSettings() []any                       { return nil }
func (NopHandler) ExportConfiguration(map[string]any)          {}
func (NopHandler) ExportInput(map[string]any)                  {}
func (NopHandler) ExportOutput(map[string]any)                 {}
