// Command studyfrogd is the bootstrap entrypoint for the studyfrog
// core: it loads configuration, opens storage, wires every dispatcher
// handler, and brings up whichever transport bridges are enabled.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/studyfrog/core/internal/bridge/natsbridge"
	"github.com/studyfrog/core/internal/bridge/ws"
	"github.com/studyfrog/core/internal/config"
	"github.com/studyfrog/core/internal/dispatch"
	"github.com/studyfrog/core/internal/notify"
	"github.com/studyfrog/core/internal/recovery"
	"github.com/studyfrog/core/internal/rehearsal"
	"github.com/studyfrog/core/internal/singleflight"
	"github.com/studyfrog/core/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Bootstrap configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[STUDYFROGD] %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("[STUDYFROGD] creating data dir %s: %v", cfg.DataDir, err)
	}

	lock := singleflight.New(cfg.DataDir)
	if err := lock.Acquire(); err != nil {
		log.Fatalf("[STUDYFROGD] %v", err)
	}
	defer lock.Release()

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("[STUDYFROGD] opening storage: %v", err)
	}
	seedOverrides := storage.SeedOverrides{
		DefaultDifficulty: cfg.Seed.DefaultDifficulty,
		DefaultPriority:   cfg.Seed.DefaultPriority,
	}
	if err := store.Bootstrap(seedOverrides); err != nil {
		log.Fatalf("[STUDYFROGD] seeding storage: %v", err)
	}

	rec, err := recovery.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("[STUDYFROGD] opening recovery store: %v", err)
	}
	defer rec.Close()

	d := dispatch.New()
	storage.RegisterHandlers(d, store)

	engine := rehearsal.New(store, d)
	engine.SetRecoveryWriter(rec)
	engine.RegisterHandlers()

	toastNotifier := notify.NewToastNotifier("StudyFrog")
	toastNotifier.RegisterHandler(d, "validation", "run-complete")

	bridgedEvents := bridgedEventNames()

	if cfg.Websocket.Enabled {
		hub := ws.NewHub()
		stop := make(chan struct{})
		defer close(stop)
		go hub.Run(stop)

		srv := ws.NewServer(hub)
		ws.SubscribeAll(d, hub, bridgedEvents...)

		go func() {
			log.Printf("[STUDYFROGD] websocket bridge listening on %s", cfg.Websocket.ListenAddress)
			if err := http.ListenAndServe(cfg.Websocket.ListenAddress, srv); err != nil {
				log.Printf("[STUDYFROGD] websocket bridge stopped: %v", err)
			}
		}()
	}

	if cfg.NATS.Enabled {
		natsSrv, err := natsbridge.NewEmbeddedServer(natsbridge.EmbeddedServerConfig{
			Port:      cfg.NATS.Port,
			JetStream: cfg.NATS.JetStream,
			DataDir:   filepath.Join(cfg.DataDir, "nats"),
		})
		if err != nil {
			log.Fatalf("[STUDYFROGD] configuring embedded NATS: %v", err)
		}
		if err := natsSrv.Start(); err != nil {
			log.Fatalf("[STUDYFROGD] starting embedded NATS: %v", err)
		}
		defer natsSrv.Stop()

		pub, err := natsbridge.Connect(natsSrv.ClientURL())
		if err != nil {
			log.Fatalf("[STUDYFROGD] connecting publisher to embedded NATS: %v", err)
		}
		defer pub.Close()

		natsbridge.SubscribeAll(d, pub, bridgedEvents...)
		log.Printf("[STUDYFROGD] NATS bridge listening on %s", natsSrv.ClientURL())
	}

	fmt.Println("studyfrog core ready")
	log.Printf("[STUDYFROGD] data dir: %s", cfg.DataDir)

	waitForShutdownSignal()
	log.Println("[STUDYFROGD] shutting down")
}

// bridgedEventNames lists every event a remote UI or collector might care
// about: the rehearsal engine's own lifecycle notifications. Storage's
// ADD/UPDATE/DELETE/FILTER events are requests a caller dispatches to get
// something done, not notifications of a completed mutation, so they are
// not rebroadcast here — bridging them would forward the request payload
// as if it were a completion event.
func bridgedEventNames() []string {
	return []string{
		rehearsal.EventLoadItem,
		rehearsal.EventIndexIncremented,
		rehearsal.EventIndexDecremented,
		rehearsal.EventIndexMaxReached,
		rehearsal.EventIndexMinReached,
		rehearsal.EventClickedEasyButton,
		rehearsal.EventClickedMediumButton,
		rehearsal.EventClickedHardButton,
		rehearsal.EventClickedEditButton,
		rehearsal.EventGetResultView,
		rehearsal.EventValidationError,
	}
}

func waitForShutdownSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
