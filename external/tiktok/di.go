package tiktok

import (
	"github.com/samber/do/v2"

	"github.com/creatorsconnections/liveboard/internal/config"
	"github.com/creatorsconnections/liveboard/internal/livestream"
)

func RegisterDI(i do.Injector) {
	do.Provide(i, func(i do.Injector) (livestream.Source, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(c.TikTokSessionID), nil
	})
}
