package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

func TestResolve(t *testing.T) {
	c := NewContainer()
	c.Register(ConfigService, &greeter{name: "cfg"})

	g, err := Resolve[*greeter](c, ConfigService)
	require.NoError(t, err)
	assert.Equal(t, "cfg", g.name)

	_, err = Resolve[string](c, ConfigService)
	assert.ErrorContains(t, err, "类型不匹配")

	_, err = Resolve[*greeter](c, ExportService)
	assert.ErrorContains(t, err, "服务未注册")

	assert.Panics(t, func() { MustResolve[*greeter](c, ExportService) })
}

func TestContainerLifecycle(t *testing.T) {
	c := NewContainer()
	c.Register(StorageService, 1)
	c.Register(ExportService, 2)

	assert.Equal(t, []string{ExportService, StorageService}, c.GetNames())
	assert.True(t, c.Has(StorageService))

	c.Remove(StorageService)
	assert.False(t, c.Has(StorageService))
	assert.Nil(t, c.Get(StorageService))

	c.Clear()
	assert.Empty(t, c.GetNames())
	assert.Same(t, GetContainer(), GetContainer())
}
