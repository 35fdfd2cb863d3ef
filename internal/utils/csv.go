package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"scalptrainer/internal/domain"
)

func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"index", "timestamp", "open", "high", "low", "close", "volume"})

	for _, c := range candles {
		writer.Write([]string{
			strconv.Itoa(c.Index),
			c.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

func WriteTradesToCSV(trades []*domain.TradeRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"id", "side", "entry_price", "exit_price", "entry_time", "exit_time", "outcome", "from_breakout", "reaction_ms"})

	for _, t := range trades {
		writer.Write([]string{
			strconv.FormatInt(t.ID, 10),
			string(t.Side),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			string(t.Outcome),
			strconv.FormatBool(t.FromBreakout),
			strconv.FormatInt(t.ReactionTime.Milliseconds(), 10),
		})
	}
	return writer.Error()
}
