package backtest

// CalculateStats computes performance statistics from the closed trades of a result
func CalculateStats(r Result) Stats {
	closed := r.ClosedTrades()
	if len(closed) == 0 {
		return Stats{}
	}

	var winning, losing int
	var totalProfit float64
	profits := make([]float64, 0, len(closed))

	for _, t := range closed {
		profits = append(profits, t.Profit)
		totalProfit += t.Profit
		if t.IsWin() {
			winning++
		} else {
			losing++
		}
	}

	probability, ok := r.WinProbability()

	return Stats{
		CompletedTrades: len(closed),
		WinningTrades:   winning,
		LosingTrades:    losing,
		WinProbability:  probability,
		HasProbability:  ok,
		TotalProfit:     totalProfit,
		AverageProfit:   totalProfit / float64(len(closed)),
		MaxDrawdown:     calculateMaxDrawdown(profits),
	}
}

// calculateMaxDrawdown finds the largest peak-to-trough decline of the
// running sum of per-trade profits, starting from zero
func calculateMaxDrawdown(profits []float64) float64 {
	var maxDD, peak, cumulative float64

	for _, p := range profits {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}
