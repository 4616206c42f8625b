package device

// Logger is a minimal structured logging interface. Protocol errors are
// absorbed, never replied to, so the logger is the only place they surface.
// All methods take a message and alternating key/value pairs.
//
// Integrate with any logging framework by adapting it to these three
// methods.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// logDebug logs a debug message if a logger is configured.
func (d *Device) logDebug(msg string, keysAndValues ...interface{}) {
	if d.cfg.logger != nil {
		d.cfg.logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Device) logInfo(msg string, keysAndValues ...interface{}) {
	if d.cfg.logger != nil {
		d.cfg.logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Device) logError(msg string, keysAndValues ...interface{}) {
	if d.cfg.logger != nil {
		d.cfg.logger.Error(msg, keysAndValues...)
	}
}
