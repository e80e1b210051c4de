package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swiftdrop/hub/infra/logger"
	"github.com/swiftdrop/hub/simulator"
)

var simCfg simulator.Config

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run scripted couriers and customers against a hub",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simCfg.HubAddr, "hub", "127.0.0.1:7777", "hub address")
	simulateCmd.Flags().IntVar(&simCfg.Couriers, "couriers", 3, "number of scripted couriers")
	simulateCmd.Flags().IntVar(&simCfg.Customers, "customers", 5, "number of scripted customers")
	simulateCmd.Flags().IntVar(&simCfg.OrderIntervalMS, "order-interval-ms", 4000, "delay between orders per customer")
	simulateCmd.Flags().Float64Var(&simCfg.RushRatio, "rush-ratio", 0.25, "fraction of rush orders")
	simulateCmd.Flags().IntVar(&simCfg.MaxDeliverySeconds, "max-delivery-seconds", 20, "cap on simulated ride time")
	simulateCmd.Flags().Int64Var(&simCfg.Seed, "seed", 0, "rng seed (0 means time-based)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simCfg.SetDefaults()
	if err := simCfg.Validate(); err != nil {
		return err
	}
	log := logger.New("simulator")
	fleet := simulator.NewFleet(simCfg, log)
	err := fleet.Run(ctx)
	ordered, delivered := fleet.Summary()
	fmt.Printf("simulation done: %d ordered, %d delivered\n", ordered, delivered)
	return err
}
