package tracker

import (
	"github.com/creatorsconnections/liveboard/internal/config"
	"github.com/creatorsconnections/liveboard/internal/discord"
	"github.com/creatorsconnections/liveboard/internal/livestream"
	"github.com/creatorsconnections/liveboard/internal/render"
	"github.com/creatorsconnections/liveboard/internal/repository"
	"github.com/creatorsconnections/liveboard/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Ladder, error) {
		repo := do.MustInvoke[repository.Repository](i)
		return NewLadder(repo, DefaultLadderRanks)
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		dc := do.MustInvoke[discord.Client](i)
		source := do.MustInvoke[livestream.Source](i)
		renderer := do.MustInvoke[render.Renderer](i)
		wh := do.MustInvoke[webhook.Sender](i)
		ladder := do.MustInvoke[*Ladder](i)
		return NewManager(cfg, repo, dc, source, renderer, wh, ladder), nil
	})
	do.Provide(injector, func(i do.Injector) (*Rollup, error) {
		repo := do.MustInvoke[repository.Repository](i)
		manager := do.MustInvoke[*Manager](i)
		return NewRollup(repo, manager), nil
	})
	do.Provide(injector, func(i do.Injector) (*Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		manager := do.MustInvoke[*Manager](i)
		rollup := do.MustInvoke[*Rollup](i)
		ladder := do.MustInvoke[*Ladder](i)
		return NewScheduler(cfg, repo, manager, rollup, ladder), nil
	})
	do.Provide(injector, func(i do.Injector) (*Autostart, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		source := do.MustInvoke[livestream.Source](i)
		manager := do.MustInvoke[*Manager](i)
		return NewAutostart(repo, source, manager, cfg.AutostartPollInterval), nil
	})
}
