//go:build !statsview

package statsview

// Start checks addr and reports that the server was not compiled in.
func Start(addr string) (*Server, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}
