package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loads   int
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loads++
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	a := &stubFeature{name: "a", enabled: true}
	b := &stubFeature{name: "b", enabled: false}
	c := &stubFeature{name: "c", enabled: true}

	m := NewManager()
	m.Register(a)
	m.Register(b)
	m.Register(c)

	loaded, err := m.LoadAll(fiber.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, loaded)
	assert.Equal(t, 0, b.loads)
}

func TestManager_RegisterReplaces(t *testing.T) {
	m := NewManager()
	m.Register(&stubFeature{name: "a", enabled: true})
	replacement := &stubFeature{name: "a", enabled: true}
	m.Register(replacement)

	require.Len(t, m.Features(), 1)
	assert.Same(t, replacement, m.Features()[0])
}

func TestManager_LoadAllStopsOnError(t *testing.T) {
	m := NewManager()
	m.Register(&stubFeature{name: "a", enabled: true})
	m.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})
	last := &stubFeature{name: "z", enabled: true}
	m.Register(last)

	loaded, err := m.LoadAll(fiber.New())
	assert.ErrorContains(t, err, "load feature broken")
	assert.Equal(t, []string{"a"}, loaded)
	assert.Equal(t, 0, last.loads)
}
