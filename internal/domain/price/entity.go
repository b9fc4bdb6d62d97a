package price

import "time"

// Candle is one daily OHLCV row from the price store
type Candle struct {
	Ticker   string    `ch:"ticker"`
	Date     time.Time `ch:"date"`
	Open     float64   `ch:"open"`
	High     float64   `ch:"high"`
	Low      float64   `ch:"low"`
	Close    float64   `ch:"close"`
	AdjClose float64   `ch:"adj_close"`
	Volume   float64   `ch:"volume"`
}

// IndexClose is one benchmark close from the index store
type IndexClose struct {
	Date   time.Time `ch:"date"`
	SP500  float64   `ch:"sp500"`
	Nasdaq float64   `ch:"nasdaq"`
	Dow    float64   `ch:"dow"`
}
