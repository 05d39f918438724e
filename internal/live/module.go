package live

import (
	"context"
	"trade_dash/internal/journal"
	backendsvc "trade_dash/internal/modules/backend/service"
	"trade_dash/internal/modules/config"
	healthsvc "trade_dash/internal/modules/health/service"
	"trade_dash/internal/notify"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("live",
		fx.Provide(
			journal.New, // *journal.Journal
			func(cfg *config.Config, api *backendsvc.Client) *PriceFeed {
				return NewPriceFeed(api, cfg.Backend.Account)
			},
			func(
				cfg *config.Config,
				api *backendsvc.Client,
				src PushSource,
				j *journal.Journal,
				st *healthsvc.State,
			) *StatusChannel {
				return NewStatusChannel(api, src, StatusChannelConfig{
					PollEvery: cfg.PollEvery,
					RetryPush: cfg.RetryPush,
				}).WithJournal(j).WithProbe(st)
			},
			func(api *backendsvc.Client, ch *StatusChannel, n notify.Notifier) *ActionGuard {
				return NewActionGuard(api, ch, n)
			},
			func(cfg *config.Config, api *backendsvc.Client, feed *PriceFeed, n notify.Notifier) *Watcher {
				return NewWatcher(api, feed, n, WatcherConfig{
					Account:        cfg.Backend.Account,
					PriceEvery:     cfg.PriceEvery,
					PositionsEvery: cfg.PositionsEvery,
				})
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			j *journal.Journal,
			ch *StatusChannel,
			w *Watcher,
			st *healthsvc.State,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if err := j.Migrate(ctx); err != nil {
						return err
					}
					ch.Start(ctx)
					w.Start(ctx)
					st.SetReady(true)
					return nil
				},
				OnStop: func(_ context.Context) error {
					st.SetReady(false)
					ch.Close()
					w.Stop()
					return nil
				},
			})
		}),
	)
}
