// Package chick merges duplicate order rows and reconciles highlighted
// quantities against the shipment ledger of an order workbook.
package chick

import (
	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick/config"
	"github.com/chobyoungjae/chick/pkg/chick/merge"
	"github.com/chobyoungjae/chick/pkg/chick/shipment"
)

// Options configures a Workbook.
type Options struct {
	// Sheet selects the sheet; empty selects the first one.
	Sheet string
	// Merge locates the order table for duplicate merging.
	Merge merge.Layout
	// Shipment locates the quantity grid and the ledger.
	Shipment shipment.Layout
	// AdjacentColumn and AdjacentFirstRow select the cells merged for display.
	AdjacentColumn   int
	AdjacentFirstRow int
	// Logger receives operation logs. If nil, logging is disabled.
	Logger *zap.Logger
}

// DefaultOptions returns the options of the daily order sheet.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig builds options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sheet:            cfg.Sheet,
		Merge:            cfg.Merge,
		Shipment:         cfg.Shipment,
		AdjacentColumn:   cfg.Adjacent.Column,
		AdjacentFirstRow: cfg.Adjacent.FirstRow,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
