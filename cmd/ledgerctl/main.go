// Command ledgerctl is a thin, read-only inspection tool over a sqlstore
// database, wired through ledgertxnroot.Root exactly the way a real
// block-apply driver would sit on top of it. It exists to demonstrate the
// wiring end to end, not to serve traffic.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	supportlog "github.com/stellar/go/support/log"

	"github.com/stellar/soroban-tools/internal/config"
	"github.com/stellar/soroban-tools/ledger"
	"github.com/stellar/soroban-tools/ledgertxnroot"
	"github.com/stellar/soroban-tools/sqlstore"
)

func main() {
	cfg := &config.Config{}
	logger := supportlog.New()

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect a ledgertxn-backed SQLite store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Load(cmd.Flags()); err != nil {
				return err
			}
			logger.SetLevel(cfg.LogLevel)
			return nil
		},
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		versionCmd(),
		headerCmd(cfg, logger),
		bestOfferCmd(cfg, logger),
		inflationWinnersCmd(cfg, logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and exit",
		Run: func(_ *cobra.Command, _ []string) {
			if config.CommitHash == "" {
				fmt.Println("ledgerctl dev")
				return
			}
			fmt.Printf("ledgerctl %s (%s) %s\n", config.Version, config.CommitHash, config.Branch)
		},
	}
}

// openRoot opens the configured SQLite store and wraps it in a
// ledgertxnroot.Root with the configured cache sizes.
func openRoot(cfg *config.Config, logger *supportlog.Entry) (*sqlstore.Store, *ledgertxnroot.Root, error) {
	store, err := sqlstore.Open(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}
	r, err := ledgertxnroot.New(store, int(cfg.EntryCacheSize), int(cfg.BestOffersCacheSize), "ledgerctl")
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	logger.Debugf("opened %s (entry cache %d, best-offers cache %d)", cfg.SQLiteDBPath, cfg.EntryCacheSize, cfg.BestOffersCacheSize)
	return store, r, nil
}

func headerCmd(cfg *config.Config, logger *supportlog.Entry) *cobra.Command {
	return &cobra.Command{
		Use:   "header",
		Short: "Print the current ledger header",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, _, err := openRoot(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			h, err := store.GetHeader()
			if err != nil {
				return err
			}
			fmt.Printf("ledgerSeq:     %d\n", h.LedgerSeq)
			fmt.Printf("ledgerVersion: %d\n", h.LedgerVersion)
			fmt.Printf("totalCoins:    %d\n", h.TotalCoins)
			fmt.Printf("baseFee:       %d\n", h.BaseFee)
			fmt.Printf("baseReserve:   %d\n", h.BaseReserve)
			fmt.Printf("maxTxSetSize:  %d\n", h.MaxTxSetSize)
			fmt.Printf("inflationSeq:  %d\n", h.InflationSeq)
			return nil
		},
	}
}

func bestOfferCmd(cfg *config.Config, logger *supportlog.Entry) *cobra.Command {
	var sellingCode, sellingIssuer, buyingCode, buyingIssuer string

	cmd := &cobra.Command{
		Use:   "best-offer",
		Short: "Print the best offer selling --selling-code/--selling-issuer for --buying-code/--buying-issuer",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, r, err := openRoot(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			selling := assetFromFlags(sellingCode, sellingIssuer)
			buying := assetFromFlags(buyingCode, buyingIssuer)

			best, err := r.GetBestOffer(buying, selling, nil)
			if err != nil {
				return err
			}
			if best == nil {
				fmt.Println("no offer found")
				return nil
			}
			o := best.Offer
			fmt.Printf("sellerID: %s offerID: %d price: %d/%d amount: %d\n", o.SellerID, o.OfferID, o.Price.N, o.Price.D, o.Amount)
			return nil
		},
	}
	cmd.Flags().StringVar(&sellingCode, "selling-code", "", "asset code being sold; empty for native")
	cmd.Flags().StringVar(&sellingIssuer, "selling-issuer", "", "asset issuer being sold; ignored for native")
	cmd.Flags().StringVar(&buyingCode, "buying-code", "", "asset code being bought; empty for native")
	cmd.Flags().StringVar(&buyingIssuer, "buying-issuer", "", "asset issuer being bought; ignored for native")
	return cmd
}

func assetFromFlags(code, issuer string) ledger.Asset {
	if code == "" {
		return ledger.NativeAsset()
	}
	return ledger.IssuedAsset(code, ledger.AccountID(issuer))
}

func inflationWinnersCmd(cfg *config.Config, logger *supportlog.Entry) *cobra.Command {
	var maxWinners int
	var minVotes int64

	cmd := &cobra.Command{
		Use:   "inflation-winners",
		Short: "Print up to --max-winners inflation destinations with at least --min-votes votes",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, r, err := openRoot(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			winners, err := r.GetInflationWinners(maxWinners, minVotes)
			if err != nil {
				return err
			}
			for _, w := range winners {
				fmt.Printf("%s: %d\n", w.AccountID, w.Votes)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxWinners, "max-winners", 10, "maximum number of winners to print")
	cmd.Flags().Int64Var(&minVotes, "min-votes", 0, "minimum vote total to qualify")
	return cmd
}
