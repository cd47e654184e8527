package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsk-labs/label-sorter/internal/common"
	"github.com/jsk-labs/label-sorter/internal/shiprocket"
)

var fetchShipments []int64

// fetchCmd pulls the bulk label PDF straight from Shiprocket and sorts it,
// skipping the manual download step. Credentials come from the environment
// (LABELSORT_SHIPROCKET_EMAIL / LABELSORT_SHIPROCKET_PASSWORD) or a config
// file's shiprocket section.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download labels from Shiprocket and sort them",
	Long: `Generates and downloads the bulk label PDF for the given shipments
(or every ready-to-ship shipment when none are given), then sorts it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		ctx := cmd.Context()

		cfg, err := common.Load("")
		if err != nil {
			return err
		}
		client, err := shiprocket.NewClient(shiprocket.Config{
			BaseURL:  cfg.Shiprocket.BaseURL,
			Email:    cfg.Shiprocket.Email,
			Password: cfg.Shiprocket.Password,
			Timeout:  cfg.Shiprocket.Timeout,
		}, logger)
		if err != nil {
			return err
		}

		ids := fetchShipments
		if len(ids) == 0 {
			orders, err := client.Orders(ctx, shiprocket.StatusReadyToShip, 1, 50)
			if err != nil {
				return err
			}
			for _, order := range orders.Data {
				for _, sh := range order.Shipments {
					ids = append(ids, sh.ID)
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("no ready-to-ship shipments found")
			}
			logger.Info("fetch.shipments.listed", "count", len(ids))
		}

		source, err := client.DownloadLabels(ctx, ids)
		if err != nil {
			return err
		}

		if outDir == "" {
			outDir = "sorted_labels"
		}
		return sortAndReport(ctx, logger, source)
	},
}

func init() {
	fetchCmd.Flags().Int64SliceVar(&fetchShipments, "shipments", nil, "shipment ids to fetch (default: all ready-to-ship)")
}
