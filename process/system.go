package process

import "log"

// NewSystemProber returns a Prober that finds processes through the
// operating system's window manager.
func NewSystemProber() *SystemProber {
	return &SystemProber{}
}

// SystemProber finds and attaches to processes on the local machine.
// Attaching is only implemented on Windows. On other operating systems
// Probe returns ErrUnsupportedPlatform.
type SystemProber struct {
	logger *log.Logger
}

// SetLogger sets the logger used by the prober and by the Targets
// it attaches to.
func (o *SystemProber) SetLogger(logger *log.Logger) {
	o.logger = logger
}
