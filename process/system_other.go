//go:build !windows

package process

// Probe always fails with ErrUnsupportedPlatform.
func (o *SystemProber) Probe(class string, title string) (Target, bool, error) {
	return nil, false, ErrUnsupportedPlatform
}
