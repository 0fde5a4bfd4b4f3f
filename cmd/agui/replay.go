package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/agui/pkg/run"
	"github.com/go-go-golems/agui/pkg/transport"
)

func newReplayCommand() *cobra.Command {
	var scenarioPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a YAML event scenario through the full protocol pipeline",
		Long: `Replay feeds every scenario event through the SSE encoder, back through
the decoder, and into the run processor. It prints the reconstructed
messages, tool calls and final state, and fails on the first protocol
violation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(scenarioPath)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runReplay(scenarioPath string) error {
	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	evs, err := scenario.DecodeEvents()
	if err != nil {
		return err
	}

	processor := run.NewProcessor()
	encoder := transport.NewEncoder()

	// Round-trip each event through the wire format before applying it, so a
	// replay exercises the same path a live stream would.
	var wire bytes.Buffer
	for _, ev := range evs {
		if err := encoder.WriteEvent(&wire, ev); err != nil {
			return err
		}
	}

	decoder := transport.NewDecoder(&wire)
	count := 0
	for {
		ev, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := processor.Apply(ev); err != nil {
			return errors.Wrapf(err, "event %d (%s) rejected", count, ev.Type())
		}
		count++
	}

	log.Info().Int("events", count).Str("phase", processor.Phase().String()).Msg("replay complete")

	fmt.Printf("phase: %s\n", processor.Phase())
	if runErr := processor.RunError(); runErr != nil {
		fmt.Printf("run error: %s (code %q)\n", runErr.Message, runErr.Code)
	}

	for _, msg := range processor.Messages() {
		fmt.Printf("message %s [%s]: %s\n", msg.ID, msg.Role, msg.Content)
	}
	for _, call := range processor.ToolCalls() {
		fmt.Printf("tool call %s %s(%s)\n", call.ID, call.Name, call.Arguments)
	}
	if state := processor.State(); state != nil {
		b, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal state")
		}
		fmt.Printf("state: %s\n", b)
	}
	return nil
}
