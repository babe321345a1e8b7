package statsview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAddress(t *testing.T) {
	type testArgs struct {
		addr    string
		wantErr bool
	}

	testDo := func(t *testing.T, in testArgs) {
		err := checkAddress(in.addr)
		if in.wantErr {
			assert.Error(t, err)
			return
		}
		assert.NoError(t, err)
	}

	t.Run("default", func(t *testing.T) {
		testDo(t, testArgs{addr: DefaultAddress})
	})
	t.Run("any host", func(t *testing.T) {
		testDo(t, testArgs{addr: ":8080"})
	})
	t.Run("no port", func(t *testing.T) {
		testDo(t, testArgs{addr: "localhost", wantErr: true})
	})
	t.Run("empty port", func(t *testing.T) {
		testDo(t, testArgs{addr: "localhost:", wantErr: true})
	})
}

func TestServer(t *testing.T) {
	stops := 0
	s := &Server{addr: DefaultAddress, stop: func() { stops++ }}
	assert.Equal(t, "http://localhost:12650/debug/statsview", s.URL())

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, stops)
}
