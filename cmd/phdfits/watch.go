package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guygrubbs/phd-fits/internal/catalog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor the data directory for new files",
	Long: `Watches the data directory and reports bench output files as the
acquisition system writes them. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w, err := catalog.NewWatcher(cfg.Paths.DataDir, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()

		fmt.Printf("Watching %s (ctrl-c to stop)\n", cfg.Paths.DataDir)
		for {
			select {
			case ev, ok := <-w.Events():
				if !ok {
					return nil
				}
				p := ev.File.Params
				line := fmt.Sprintf("%-7s %-10s %s", ev.Op, ev.File.Kind, ev.File.Base())
				if p.BeamEnergy != nil {
					line += fmt.Sprintf("  beam=%geV", *p.BeamEnergy)
				}
				if p.ESAVoltage != nil {
					line += fmt.Sprintf("  esa=%gV", *p.ESAVoltage)
				}
				fmt.Println(line)
			case <-ctx.Done():
				return nil
			}
		}
	},
}
