// The agent is the long-running local daemon. It owns the durable
// flagged-channel store, keeps it synced against the community API,
// annotates pages through an optional live browser session, and serves
// the message API that the ctl tool and page sessions talk to.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/agentapi"
	"github.com/orthrauku-dev/yt-sus/internal/annotate"
	"github.com/orthrauku-dev/yt-sus/internal/config"
	"github.com/orthrauku-dev/yt-sus/internal/coordinator"
	"github.com/orthrauku-dev/yt-sus/internal/hub"
	"github.com/orthrauku-dev/yt-sus/internal/middleware"
	"github.com/orthrauku-dev/yt-sus/internal/remote"
	"github.com/orthrauku-dev/yt-sus/internal/store"
	"github.com/orthrauku-dev/yt-sus/internal/voting"
)

func main() {
	cfg := config.LoadAgent()
	middleware.InitLogger(cfg.LogLevel, "ytsus-agent")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenSQLite(ctx, cfg.StorePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	events := hub.New()
	coord := coordinator.New(st, events)

	syncer := remote.NewSyncer(coord, remote.NewClient(cfg.APIBaseURL))
	engine := voting.NewEngine(syncer, coord)
	dispatch := coordinator.NewDispatcher(coord, engine, syncer)

	go syncer.RunScheduler(ctx)

	if cfg.LiveBrowser {
		go runLiveAnnotator(ctx, coord, events)
	}

	app := agentapi.NewServer(dispatch, events).App()
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("agent: shutdown: %v", err)
		}
	}()

	log.Printf("agent listening on %s (store=%s, api=%s)", cfg.ListenAddr, cfg.StorePath, cfg.APIBaseURL)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("agent: listen: %v", err)
	}
}

// runLiveAnnotator drives a headless browser session: a poll loop
// detects in-page navigations, coordinator broadcasts force
// re-evaluation, and every decorated result is pushed back into the
// live page. Best effort: a missing browser just disables live mode.
func runLiveAnnotator(ctx context.Context, coord *coordinator.Coordinator, events *hub.Hub) {
	session, err := annotate.NewSession(ctx)
	if err != nil {
		log.Printf("live annotator disabled: %v", err)
		return
	}
	defer session.Close()

	probes := annotate.DefaultProbes()
	ctrl := annotate.NewController(coord, annotate.New(probes), session)

	ch, cancel := events.Subscribe()
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastURL := ""
	apply := func(res *annotate.Result, err error) {
		if err != nil {
			log.Printf("live annotator: %v", err)
			return
		}
		if err := session.Apply(res, probes); err != nil {
			log.Printf("live annotator: %v", err)
		}
	}

	for {
		select {
		case <-ticker.C:
			url, err := session.CurrentURL()
			if err != nil || url == "" || url == lastURL {
				continue
			}
			lastURL = url
			apply(ctrl.Navigated(ctx, url))
		case _, ok := <-ch:
			if !ok {
				return
			}
			apply(ctrl.Reevaluate(ctx))
		case <-ctx.Done():
			return
		}
	}
}
