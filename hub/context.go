package hub

// Context holds the running firmware's hash and a final shutdown flag.
// It does not schedule anything — runtime.Scheduler does that — and it
// holds no references to the other components: cmd/hub's Run wires
// C1-C8 together directly.
type Context struct {
	FirmwareHash [FirmwareHashSize]byte

	// Shutdown is set by RequestShutdown.
	Shutdown bool
}

// NewContext returns a zero-valued Context ready to be populated by
// target wiring code.
func NewContext() *Context {
	return &Context{}
}

// RequestShutdown marks the hub for shutdown. hmi does not call it: the
// supervisor tracks shutdown through its own status bit (see status.go
// FlagShutdownRequest).
func (c *Context) RequestShutdown() {
	c.Shutdown = true
}
