package feed

import (
	"time"

	"scalptrainer/internal/app"
	"scalptrainer/internal/domain"
	"scalptrainer/internal/scoring"
)

// Wire shapes for the rendering client. Kept separate from the domain
// types so the JSON contract does not leak internal bookkeeping.

type candleDTO struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"ts"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type levelDTO struct {
	Price    float64 `json:"price"`
	Kind     string  `json:"kind"`
	Strength int     `json:"strength"`
	Active   bool    `json:"active"`
}

type breakoutDTO struct {
	CandleIndex int       `json:"candle_index"`
	DetectedAt  time.Time `json:"detected_at"`
	Direction   string    `json:"direction"`
}

type sessionDTO struct {
	State      string    `json:"state"`
	Side       string    `json:"side"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	EntryTime  time.Time `json:"entry_time,omitempty"`
	ReactionMs int64     `json:"reaction_ms,omitempty"`
}

type snapshotDTO struct {
	Candles  []candleDTO     `json:"candles"`
	Levels   []levelDTO      `json:"levels"`
	Breakout *breakoutDTO    `json:"breakout,omitempty"`
	Session  *sessionDTO     `json:"session,omitempty"`
	Stats    scoring.Summary `json:"stats"`
	Paused   bool            `json:"paused"`
	Debug    bool            `json:"debug"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type actionResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func toSnapshotDTO(s app.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		Candles: make([]candleDTO, len(s.Candles)),
		Levels:  make([]levelDTO, 0, len(s.Levels)),
		Stats:   s.Stats,
		Paused:  s.Paused,
		Debug:   s.Debug,
	}
	for i, c := range s.Candles {
		dto.Candles[i] = candleDTO{
			Index:     c.Index,
			Timestamp: c.Timestamp,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
	}
	for _, l := range s.Levels {
		dto.Levels = append(dto.Levels, levelDTO{
			Price:    l.Price,
			Kind:     string(l.Kind),
			Strength: l.Strength,
			Active:   l.Active,
		})
	}
	if s.Breakout != nil {
		dto.Breakout = &breakoutDTO{
			CandleIndex: s.Breakout.CandleIndex,
			DetectedAt:  s.Breakout.DetectedAt,
			Direction:   string(s.Breakout.Direction),
		}
	}
	if s.Session != nil && s.Session.State != domain.StateIdle {
		dto.Session = &sessionDTO{
			State:      string(s.Session.State),
			Side:       string(s.Session.Side),
			EntryPrice: s.Session.EntryPrice,
			EntryTime:  s.Session.EntryTime,
			ReactionMs: s.Session.ReactionTime.Milliseconds(),
		}
	}
	return dto
}
