package render

import (
	"github.com/samber/do/v2"

	"github.com/creatorsconnections/liveboard/internal/render"
)

func RegisterDI(i do.Injector) {
	do.Provide(i, func(i do.Injector) (render.Renderer, error) {
		return NewChartRenderer(), nil
	})
}
