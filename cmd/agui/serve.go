package main

import (
	"context"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/agui/pkg/events"
	"github.com/go-go-golems/agui/pkg/helpers"
	"github.com/go-go-golems/agui/pkg/sinks"
	"github.com/go-go-golems/agui/pkg/transport"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run event streams over HTTP SSE",
		Long: `Serve bridges a watermill topic to HTTP: POST /emit publishes one JSON
event, GET /stream?runId=<id> follows that run's stream as Server-Sent
Events. Configuration is read from flags or AGUI_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().String("addr", ":8000", "HTTP listen address")
	_ = viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(ctx context.Context) error {
	viper.SetEnvPrefix("AGUI")
	viper.AutomaticEnv()
	addr := viper.GetString("addr")

	router, err := transport.NewEventRouter(transport.WithVerbose(false))
	if err != nil {
		return errors.Wrap(err, "create event router")
	}
	defer func() {
		_ = router.Close()
	}()

	publisher := helpers.CorrelationPublisherDecorator{Publisher: router.Publisher}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/emit", handleEmit(publisher))
	mux.HandleFunc("/stream", handleStream(router))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		log.Info().Str("addr", addr).Msg("serving event streams")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// handleEmit accepts one JSON event per request and publishes it on the
// run's topic.
func handleEmit(publisher helpers.CorrelationPublisherDecorator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1024*1024))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ev, err := transport.DecodeEventJSON(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		runID := r.URL.Query().Get("runId")
		if runID == "" {
			http.Error(w, "runId query parameter is required", http.StatusBadRequest)
			return
		}
		sink := sinks.NewWatermillSink(publisher, transport.RunTopic(runID))
		if err := sink.PublishEvent(ev); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// handleStream follows one run's topic and relays its events as SSE frames.
func handleStream(router *transport.EventRouter) http.HandlerFunc {
	encoder := transport.NewEncoder()
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("runId")
		if runID == "" {
			http.Error(w, "runId query parameter is required", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		ch, err := router.Subscriber.Subscribe(r.Context(), transport.RunTopic(runID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		for msg := range ch {
			ev, err := events.NewEventFromJson(msg.Payload)
			if err != nil {
				log.Error().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			if err := encoder.WriteEvent(w, ev); err != nil {
				log.Debug().Err(err).Msg("client went away")
				msg.Nack()
				return
			}
			flusher.Flush()
			msg.Ack()
		}
	}
}
