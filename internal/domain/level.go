package domain

// LevelKind indicates whether a level acts as a price floor or ceiling.
type LevelKind string

const (
	Support    LevelKind = "support"
	Resistance LevelKind = "resistance"
)

// Level is a horizontal support/resistance price maintained by the
// level manager. A broken level flips kind rather than disappearing;
// it is only deactivated after going untouched for a long window or
// when superseded by a newer level too close in price.
type Level struct {
	Price         float64   // Level price, positive
	Kind          LevelKind // Current role
	Strength      int       // Bounce weight, reset to a base value on break
	CreatedAt     int       // Candle index at creation
	LastTouch     int       // Candle index of the most recent range touch
	Active        bool      // False once expired or superseded
	DeactivatedAt int       // Candle index at deactivation (bookkeeping for display)
}

// Flip reverses the level's role after a decisive break.
func (l *Level) Flip() {
	if l.Kind == Support {
		l.Kind = Resistance
	} else {
		l.Kind = Support
	}
}
